package data

import (
	"context"
	"fmt"
	"sort"
)

// Resolver computes one dependency for the submission under evaluation.
type Resolver interface {
	Resolve(ctx context.Context, key DependencyKey) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, key DependencyKey) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, key DependencyKey) (any, error) {
	return f(ctx, key)
}

type memoEntry struct {
	val any
	err error
}

// EvalContext is the per-evaluation derived data cache.
//
// Each dependency is resolved at most once, on first use; the value (or the error)
// is memoized for the rest of the evaluation. An EvalContext belongs to exactly one
// evaluation and is not safe for concurrent use.
type EvalContext struct {
	resolver Resolver
	memo     map[DependencyKey]memoEntry
}

func NewEvalContext(resolver Resolver) *EvalContext {
	return &EvalContext{
		resolver: resolver,
		memo:     make(map[DependencyKey]memoEntry),
	}
}

func (c *EvalContext) Get(ctx context.Context, key DependencyKey) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	if e, ok := c.memo[key]; ok {
		return e.val, e.err
	}
	if c.resolver == nil {
		return nil, fmt.Errorf("%s: %w", key, ErrMissing)
	}
	val, err := c.resolver.Resolve(ctx, key)
	c.memo[key] = memoEntry{val: val, err: err}
	return val, err
}

// Resolved returns the keys resolved so far, sorted.
func (c *EvalContext) Resolved() []DependencyKey {
	if c == nil {
		return nil
	}
	keys := make([]DependencyKey, 0, len(c.memo))
	for k := range c.memo {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
