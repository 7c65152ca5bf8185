package rules

import (
	"context"

	"pubcheck/internal/data"
	"pubcheck/internal/submission"
)

type Rule interface {
	ID() string
	Title() string
	Description() string

	// Dependencies declares the derived data this rule reads.
	Dependencies() []data.DependencyKey

	// Evaluate runs rule logic using the submission and DataContext only.
	// Rules MUST NOT call the registry or the extractor directly.
	Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (Result, error)
}

type Option struct {
	Name        string
	Description string
	Default     string
}

type ConfigurableRule interface {
	Rule
	Options() []Option
	Configure(opts map[string]string) error
}
