package rules

type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Result is the outcome of one rule for one submission.
type Result struct {
	RuleID string `json:"rule_id"`
	// Check is the boolean outcome that feeds the aggregate verdict.
	Check   bool   `json:"check"`
	Status  Status `json:"status"`
	Details string `json:"details,omitempty"`
	// Debug carries structured context supporting the result (type lists, timestamps).
	Debug any `json:"debug,omitempty"`
}
