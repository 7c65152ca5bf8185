// Package verdict holds the aggregate compliance record produced for one submission.
package verdict

import (
	"time"

	"pubcheck/internal/rules"
)

// Verdict is the combined outcome of every registered rule for one submission.
type Verdict struct {
	ID string `json:"id"`
	// Submission is the primary identifier (or another label) of the evaluated record.
	Submission string `json:"submission"`
	// Source is the file the submission was loaded from, if any. Not persisted.
	Source string `json:"source,omitempty"`
	// RecordID is resolved by the store and stays empty until the verdict is persisted.
	RecordID string `json:"record_id,omitempty"`
	// Passed is the logical AND of every rule's Check flag.
	Passed bool `json:"passed"`
	// Errored is set when at least one rule failed to evaluate.
	Errored     bool             `json:"errored,omitempty"`
	Checks      *rules.ResultSet `json:"checks"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
	Duration    time.Duration    `json:"duration_ns"`
}

// Status folds the verdict into a single rule-style status.
func (v *Verdict) Status() rules.Status {
	switch {
	case v.Errored:
		return rules.StatusError
	case v.Passed:
		return rules.StatusPass
	default:
		return rules.StatusFail
	}
}

// Counts returns how many checks ended in each status.
func (v *Verdict) Counts() map[rules.Status]int {
	out := make(map[rules.Status]int, 3)
	for _, r := range v.Checks.Results() {
		out[r.Status]++
	}
	return out
}
