package rules

import (
	"context"

	"pubcheck/internal/data"
	"pubcheck/internal/submission"
)

// AllowListWrapper wraps a Rule to provide automatic allowlist functionality.
type AllowListWrapper struct {
	Rule
	allowList AllowList
}

func (w *AllowListWrapper) ID() string {
	return w.Rule.ID()
}

func (w *AllowListWrapper) Title() string {
	return w.Rule.Title()
}

func (w *AllowListWrapper) Description() string {
	return w.Rule.Description()
}

func (w *AllowListWrapper) Dependencies() []data.DependencyKey {
	return w.Rule.Dependencies()
}

// Evaluate calls the inner rule's Evaluate and then applies the allowlist logic.
func (w *AllowListWrapper) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (Result, error) {
	result, err := w.Rule.Evaluate(ctx, sub, dc)
	if err != nil {
		return result, err
	}
	return w.allowList.CheckResult(sub, result), nil
}

// Options returns the combined options of the allowlist and the inner rule (if configurable).
func (w *AllowListWrapper) Options() []Option {
	opts := w.allowList.Options()
	if cr, ok := w.Rule.(ConfigurableRule); ok {
		opts = append(opts, cr.Options()...)
	}
	return opts
}

// Configure configures the allowlist and the inner rule (if configurable).
func (w *AllowListWrapper) Configure(opts map[string]string) error {
	w.allowList.Configure(opts)
	if cr, ok := w.Rule.(ConfigurableRule); ok {
		return cr.Configure(opts)
	}
	return nil
}

// Unwrap returns the wrapped rule.
func (w *AllowListWrapper) Unwrap() Rule {
	return w.Rule
}
