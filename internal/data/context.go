package data

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissing is returned when a DataContext cannot provide a dependency.
var ErrMissing = errors.New("dependency missing")

// DataContext provides derived submission data to rules.
type DataContext interface {
	Get(ctx context.Context, key DependencyKey) (any, error)
}

// MapDataContext is a simple read-only map-based implementation of DataContext.
type MapDataContext struct {
	data map[DependencyKey]any
}

func NewMapDataContext(data map[DependencyKey]any) *MapDataContext {
	// A nil map is treated as an empty context.
	return &MapDataContext{data: data}
}

func (c *MapDataContext) Get(_ context.Context, key DependencyKey) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	val, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return val, nil
}
