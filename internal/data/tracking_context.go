package data

import (
	"context"
	"fmt"
	"sort"
)

// TrackingDataContext wraps another DataContext and records every dependency key
// that callers attempt to read via Get().
//
// The engine uses it to enforce that rules declare all dependencies up front via
// Rule.Dependencies().
type TrackingDataContext struct {
	inner    DataContext
	accessed map[DependencyKey]struct{}
}

func NewTrackingDataContext(inner DataContext) *TrackingDataContext {
	return &TrackingDataContext{
		inner:    inner,
		accessed: make(map[DependencyKey]struct{}),
	}
}

func (c *TrackingDataContext) Get(ctx context.Context, key DependencyKey) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	c.accessed[key] = struct{}{}
	if c.inner == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return c.inner.Get(ctx, key)
}

func (c *TrackingDataContext) AccessedKeys() []DependencyKey {
	if c == nil {
		return nil
	}
	keys := make([]DependencyKey, 0, len(c.accessed))
	for k := range c.accessed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
