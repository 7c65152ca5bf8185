package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps verdicts for the lifetime of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	identifiers map[string]string
	records     map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identifiers: make(map[string]string),
		records:     make(map[string]*Record),
	}
}

func (s *MemoryStore) Resolve(_ context.Context, doi string) (string, error) {
	key := normalizeDOI(doi)
	if key == "" {
		return "", NewStorageError("memory", "resolve", fmt.Errorf("empty identifier"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.identifiers[key]; ok {
		return id, nil
	}
	id := uuid.New().String()
	s.identifiers[key] = id
	return id, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return NewStorageError("memory", "save", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *rec
	s.records[rec.ID] = &recordCopy
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("verdict %s: %w", id, ErrNotFound)
	}
	recordCopy := *rec
	return &recordCopy, nil
}

func (s *MemoryStore) Latest(ctx context.Context, key string) (*Record, error) {
	recs, err := s.List(ctx, Query{Key: key, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("verdict for %s: %w", key, ErrNotFound)
	}
	return recs[0], nil
}

func (s *MemoryStore) List(_ context.Context, q Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.records {
		if !matchesKey(rec, q.Key) {
			continue
		}
		if q.Passed != nil && rec.Passed != *q.Passed {
			continue
		}
		if !q.Since.IsZero() && rec.EvaluatedAt.Before(q.Since) {
			continue
		}
		recordCopy := *rec
		out = append(out, &recordCopy)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EvaluatedAt.Equal(out[j].EvaluatedAt) {
			return out[i].EvaluatedAt.After(out[j].EvaluatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, rec := range s.records {
		if rec.EvaluatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
