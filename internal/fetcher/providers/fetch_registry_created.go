package providers

import (
	"context"
	"fmt"

	"pubcheck/internal/data"
	"pubcheck/internal/fetcher"
	"pubcheck/internal/submission"
)

type registryCreatedFetcher struct{}

func (r *registryCreatedFetcher) Key() data.DependencyKey {
	return data.DepRegistryCreated
}

// Fetch looks up the creation instant of the primary DOI. The lookup is not retried.
func (r *registryCreatedFetcher) Fetch(ctx context.Context, sub *submission.Submission, f *fetcher.Fetcher) (any, error) {
	doi, err := sub.PrimaryDOI()
	if err != nil {
		return nil, err
	}
	oracle := f.Oracle()
	if oracle == nil {
		return nil, fmt.Errorf("registry lookup: no registry client configured")
	}
	created, err := oracle.CreatedAt(ctx, doi)
	if err != nil {
		return nil, fmt.Errorf("registry lookup for %s: %w", doi, err)
	}
	return submission.StripZone(created), nil
}

func init() {
	fetcher.RegisterDataFetcher(&registryCreatedFetcher{})
}
