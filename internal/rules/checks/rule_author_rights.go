package checks

import (
	"context"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

// AuthorRightsRule is a placeholder policy: author rights are not verified yet, so it
// always passes. It stays registered so every verdict carries the entry.
type AuthorRightsRule struct{}

func init() {
	rules.Register(&AuthorRightsRule{})
}

func (r *AuthorRightsRule) ID() string {
	return "author_rights"
}

func (r *AuthorRightsRule) Title() string {
	return "Author Rights Declared"
}

func (r *AuthorRightsRule) Description() string {
	return "Placeholder for the author rights check. Always passes."
}

func (r *AuthorRightsRule) Dependencies() []data.DependencyKey {
	return nil
}

func (r *AuthorRightsRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	return rules.PassResult(r.ID()), nil
}
