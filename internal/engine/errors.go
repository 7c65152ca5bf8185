package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RuleError records why one rule could not be evaluated.
type RuleError struct {
	RuleID string
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// EvaluationError is returned by Evaluate alongside a complete verdict when one or
// more rules errored. Each failed rule also appears in the verdict as an ERROR result.
type EvaluationError struct {
	Submission string
	Rules      []*RuleError
}

func (e *EvaluationError) Error() string {
	ids := make([]string, 0, len(e.Rules))
	for _, r := range e.Rules {
		ids = append(ids, r.RuleID)
	}
	return fmt.Sprintf("evaluation of %s: %d rule(s) failed (%s): %v",
		e.Submission, len(e.Rules), strings.Join(ids, ", "), errors.Join(e.Unwrap()...))
}

func (e *EvaluationError) Unwrap() []error {
	out := make([]error, 0, len(e.Rules))
	for _, r := range e.Rules {
		out = append(out, r)
	}
	return out
}
