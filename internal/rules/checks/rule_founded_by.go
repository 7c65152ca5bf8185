package checks

import (
	"context"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

const defaultFoundedByPattern = `.{0,10}scoap(3){0,1}.{0,10}`

type FoundedByRule struct {
	textMatcher
}

func init() {
	rules.Register(&FoundedByRule{textMatcher{pattern: mustCompileTextPattern(defaultFoundedByPattern)}})
}

func (r *FoundedByRule) ID() string {
	return "founded_by"
}

func (r *FoundedByRule) Title() string {
	return "Funding Acknowledged"
}

func (r *FoundedByRule) Description() string {
	return "Verifies that the article text acknowledges SCOAP3 funding."
}

func (r *FoundedByRule) Dependencies() []data.DependencyKey {
	return []data.DependencyKey{data.DepExtractedText}
}

func (r *FoundedByRule) Options() []rules.Option {
	return []rules.Option{
		{
			Name:        "pattern",
			Description: "Regular expression searched case-insensitively in the article text.",
			Default:     defaultFoundedByPattern,
		},
	}
}

func (r *FoundedByRule) Configure(opts map[string]string) error {
	expr := defaultFoundedByPattern
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

func (r *FoundedByRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	return r.evaluate(ctx, r.ID(), dc)
}
