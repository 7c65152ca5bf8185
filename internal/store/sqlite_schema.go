package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the verdict database schema.
const Schema = `
-- External identifier to internal record mapping
CREATE TABLE IF NOT EXISTS identifiers (
    doi TEXT PRIMARY KEY,
    record_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Verdicts
CREATE TABLE IF NOT EXISTS verdicts (
    id TEXT PRIMARY KEY,
    record_id TEXT NOT NULL,
    submission TEXT NOT NULL,
    passed BOOLEAN NOT NULL,
    errored BOOLEAN NOT NULL DEFAULT 0,
    checks TEXT NOT NULL,
    evaluated_at TIMESTAMP NOT NULL,
    duration_ms INTEGER
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verdicts_record_id ON verdicts(record_id);
CREATE INDEX IF NOT EXISTS idx_verdicts_submission ON verdicts(submission COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_verdicts_evaluated_at ON verdicts(evaluated_at);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
