// Package store persists compliance verdicts and maps external identifiers to
// internal record IDs.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pubcheck/internal/verdict"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("not found")

// Record is the persisted form of a verdict. Source is not stored.
type Record = verdict.Verdict

// Query filters List results. Zero values match everything.
type Query struct {
	// Key matches the record ID or the submission identifier.
	Key    string
	Passed *bool
	Since  time.Time
	// Limit caps the number of results (newest first). 0 means unlimited.
	Limit int
}

type Store interface {
	// Resolve returns the internal record ID for an external identifier, minting
	// and remembering a new one if the identifier is unknown.
	Resolve(ctx context.Context, doi string) (string, error)
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// Latest returns the newest verdict whose record ID or submission matches key.
	Latest(ctx context.Context, key string) (*Record, error)
	List(ctx context.Context, q Query) ([]*Record, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// StorageError reports a failed storage operation.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// Open returns the store for backend. The "none" backend yields a nil Store, which
// callers treat as "do not persist".
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

func validateRecord(rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if rec.ID == "" {
		return errors.New("record ID is required")
	}
	if rec.RecordID == "" {
		return errors.New("record_id is required")
	}
	return nil
}

func normalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

func matchesKey(rec *Record, key string) bool {
	if key == "" {
		return true
	}
	return rec.RecordID == key || strings.EqualFold(rec.Submission, key)
}
