package checks

import (
	"context"
	"fmt"
	"regexp"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
)

// textMatcher searches the extracted document text for a case-insensitive pattern.
type textMatcher struct {
	pattern *regexp.Regexp
}

func compileTextPattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re, nil
}

func mustCompileTextPattern(expr string) *regexp.Regexp {
	re, err := compileTextPattern(expr)
	if err != nil {
		panic(err)
	}
	return re
}

// evaluate passes with `Found as "<match>"` on the first match, even an empty one,
// and fails with no details otherwise. Missing text is searched as the empty string.
func (m textMatcher) evaluate(ctx context.Context, ruleID string, dc data.DataContext) (rules.Result, error) {
	val, err := dc.Get(ctx, data.DepExtractedText)
	if err != nil {
		return rules.Result{}, err
	}
	text, ok := val.(string)
	if !ok {
		return rules.ErrorResult(ruleID, fmt.Sprintf("unexpected type for %s: %T", data.DepExtractedText, val)), nil
	}

	if loc := m.pattern.FindStringIndex(text); loc != nil {
		return rules.PassResultWithDetails(ruleID, fmt.Sprintf("Found as \"%s\"", text[loc[0]:loc[1]])), nil
	}
	return rules.FailResult(ruleID, ""), nil
}
