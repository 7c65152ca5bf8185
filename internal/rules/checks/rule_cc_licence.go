package checks

import (
	"context"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

const defaultLicencePattern = `(cc[- ]?by)|(creative commons attribution)`

type CCLicenceRule struct {
	textMatcher
}

func init() {
	rules.Register(&CCLicenceRule{textMatcher{pattern: mustCompileTextPattern(defaultLicencePattern)}})
}

func (r *CCLicenceRule) ID() string {
	return "cc_licence"
}

func (r *CCLicenceRule) Title() string {
	return "Creative Commons Licence Declared"
}

func (r *CCLicenceRule) Description() string {
	return "Verifies that the article text declares a CC-BY (Creative Commons Attribution) licence."
}

func (r *CCLicenceRule) Dependencies() []data.DependencyKey {
	return []data.DependencyKey{data.DepExtractedText}
}

func (r *CCLicenceRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "pattern",
			Description: "Regular expression searched case-insensitively in the article text.",
			Default:     defaultLicencePattern,
		},
	}
}

func (r *CCLicenceRule) Configure(opts map[string]string) error {
	expr := defaultLicencePattern
	if val, ok := opts["pattern"]; ok && val != "" {
		expr = val
	}
	re, err := compileTextPattern(expr)
	if err != nil {
		return err
	}
	r.pattern = re
	return nil
}

func (r *CCLicenceRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	return r.evaluate(ctx, r.ID(), dc)
}
