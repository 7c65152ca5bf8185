package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pubcheck/internal/data"
	"pubcheck/internal/extract"
	"pubcheck/internal/submission"
)

// TimeOracle reports when an identifier was created at the external registry.
type TimeOracle interface {
	CreatedAt(ctx context.Context, doi string) (time.Time, error)
}

// Fetcher computes derived data for submissions by dispatching to the registered
// DataFetchers. It holds the external collaborators; memoization is the job of the
// per-evaluation data.EvalContext.
type Fetcher struct {
	extractor extract.TextExtractor
	oracle    TimeOracle
	logger    *slog.Logger
}

type fetchChainKey struct{}

func NewFetcher(extractor extract.TextExtractor, oracle TimeOracle) *Fetcher {
	return &Fetcher{
		extractor: extractor,
		oracle:    oracle,
		logger:    slog.Default().With("component", "fetcher"),
	}
}

func (f *Fetcher) Extractor() extract.TextExtractor {
	return f.extractor
}

func (f *Fetcher) Oracle() TimeOracle {
	return f.oracle
}

func (f *Fetcher) Logger() *slog.Logger {
	if f == nil || f.logger == nil {
		return slog.Default()
	}
	return f.logger
}

// Resolver binds the fetcher to one submission, for use with data.NewEvalContext.
func (f *Fetcher) Resolver(sub *submission.Submission) data.Resolver {
	return data.ResolverFunc(func(ctx context.Context, key data.DependencyKey) (any, error) {
		return f.Fetch(ctx, sub, key)
	})
}

func (f *Fetcher) Fetch(ctx context.Context, sub *submission.Submission, key data.DependencyKey) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Fetch: nil context")
	}
	if f == nil {
		return nil, fmt.Errorf("Fetch: nil Fetcher")
	}
	if sub == nil {
		return nil, fmt.Errorf("Fetch: nil submission")
	}
	if key == "" {
		return nil, fmt.Errorf("Fetch: empty dependency key")
	}

	fetchImpl, ok := ResolveDataFetcher(key)
	if !ok {
		return nil, fmt.Errorf("unsupported dependency key: %s", key)
	}

	ctx, err := withFetchChain(ctx, string(key))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	val, err := fetchImpl.Fetch(ctx, sub, f)
	f.Logger().Debug("fetched dependency",
		"submission", sub.Label(),
		"key", key,
		"duration", time.Since(start),
		"error", err,
	)
	return val, err
}

func withFetchChain(ctx context.Context, flightKey string) (context.Context, error) {
	chain := getFetchChain(ctx)
	for _, existing := range chain {
		if existing == flightKey {
			return nil, fmt.Errorf("Fetch: dependency cycle detected: %s -> %s", strings.Join(chain, " -> "), flightKey)
		}
	}

	updated := make([]string, 0, len(chain)+1)
	updated = append(updated, chain...)
	updated = append(updated, flightKey)
	return context.WithValue(ctx, fetchChainKey{}, updated), nil
}

func getFetchChain(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	chain, ok := ctx.Value(fetchChainKey{}).([]string)
	if !ok {
		return nil
	}
	return chain
}
