package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"pubcheck/internal/rules"
)

// SQLiteStore persists verdicts in a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const busyTimeout = 5 * time.Second

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, NewStorageError("sqlite", "open", errors.New("database path is required"))
	}

	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return NewStorageError("sqlite", "enable_wal", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

func (s *SQLiteStore) Resolve(ctx context.Context, doi string) (string, error) {
	key := normalizeDOI(doi)
	if key == "" {
		return "", NewStorageError("sqlite", "resolve", errors.New("empty identifier"))
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identifiers (doi, record_id, created_at) VALUES (?, ?, ?) ON CONFLICT(doi) DO NOTHING`,
		key, uuid.New().String(), time.Now().UTC(),
	)
	if err != nil {
		return "", NewStorageError("sqlite", "resolve", err)
	}

	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT record_id FROM identifiers WHERE doi = ?`, key).Scan(&id); err != nil {
		return "", NewStorageError("sqlite", "resolve", err)
	}
	return id, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return NewStorageError("sqlite", "save", err)
	}
	checks, err := json.Marshal(rec.Checks)
	if err != nil {
		return NewStorageError("sqlite", "save", fmt.Errorf("marshal checks: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (id, record_id, submission, passed, errored, checks, evaluated_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			record_id = excluded.record_id,
			submission = excluded.submission,
			passed = excluded.passed,
			errored = excluded.errored,
			checks = excluded.checks,
			evaluated_at = excluded.evaluated_at,
			duration_ms = excluded.duration_ms
	`,
		rec.ID, rec.RecordID, rec.Submission, rec.Passed, rec.Errored, string(checks),
		rec.EvaluatedAt.UTC(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return NewStorageError("sqlite", "save", err)
	}
	return nil
}

const selectVerdict = `SELECT id, record_id, submission, passed, errored, checks, evaluated_at, duration_ms FROM verdicts`

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectVerdict+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verdict %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Latest(ctx context.Context, key string) (*Record, error) {
	recs, err := s.List(ctx, Query{Key: key, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("verdict for %s: %w", key, ErrNotFound)
	}
	return recs[0], nil
}

func (s *SQLiteStore) List(ctx context.Context, q Query) ([]*Record, error) {
	var where []string
	var args []any
	if q.Key != "" {
		where = append(where, `(record_id = ? OR submission = ? COLLATE NOCASE)`)
		args = append(args, q.Key, q.Key)
	}
	if q.Passed != nil {
		where = append(where, `passed = ?`)
		args = append(args, *q.Passed)
	}
	if !q.Since.IsZero() {
		where = append(where, `evaluated_at >= ?`)
		args = append(args, q.Since.UTC())
	}

	query := selectVerdict
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY evaluated_at DESC, id ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE evaluated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	if n > 0 {
		s.logger.Info("deleted verdicts", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		checks     string
		durationMS sql.NullInt64
	)
	if err := row.Scan(&rec.ID, &rec.RecordID, &rec.Submission, &rec.Passed, &rec.Errored, &checks, &rec.EvaluatedAt, &durationMS); err != nil {
		return nil, err
	}
	rec.Checks = rules.NewResultSet()
	if err := json.Unmarshal([]byte(checks), rec.Checks); err != nil {
		return nil, fmt.Errorf("decode checks of %s: %w", rec.ID, err)
	}
	rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	return &rec, nil
}
