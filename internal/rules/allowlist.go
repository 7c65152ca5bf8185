package rules

import (
	"fmt"
	"strings"

	"pubcheck/internal/submission"
)

// AllowList handles common allow-listing logic for rules.
// It supports allowing by primary DOI (exact match) and glob pattern.
type AllowList struct {
	DOIs     map[string]bool
	Patterns []string
}

// Options returns the standard configuration options for allow-listing.
func (a *AllowList) Options() []Option {
	return []Option{
		{
			Name:        "allow.dois",
			Description: "Comma-separated list of allowed primary DOIs.",
		},
		{
			Name:        "allow.patterns",
			Description: "Comma-separated list of wildcard patterns for allowed DOIs (e.g. 10.1016/j.physletb.*, or *physletb* to match the suffix only).",
		},
	}
}

// Configure parses the configuration options to populate the AllowList.
func (a *AllowList) Configure(opts map[string]string) {
	a.DOIs = make(map[string]bool)
	a.Patterns = nil

	if val, ok := opts["allow.dois"]; ok && val != "" {
		for _, s := range strings.Split(val, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				a.DOIs[strings.ToLower(s)] = true
			}
		}
	}

	if val, ok := opts["allow.patterns"]; ok && val != "" {
		for _, s := range strings.Split(val, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				// DOIs are case-insensitive
				a.Patterns = append(a.Patterns, strings.ToLower(s))
			}
		}
	}
}

// IsAllowed checks if the submission is allowed by any of the configured rules.
// It returns true and a reason string if allowed, otherwise false and empty string.
func (a *AllowList) IsAllowed(sub *submission.Submission) (bool, string) {
	doi, err := sub.PrimaryDOI()
	if err != nil {
		return false, ""
	}
	doi = strings.ToLower(doi)

	if a.DOIs[doi] {
		return true, "allow.dois"
	}

	for _, pattern := range a.Patterns {
		if submission.MatchDOI(pattern, doi) {
			return true, "allow.patterns"
		}
	}

	return false, ""
}

// CheckResult converts a failure into a pass when the submission is allowed.
func (a *AllowList) CheckResult(sub *submission.Submission, result Result) Result {
	if result.Status == StatusFail {
		if allowed, reason := a.IsAllowed(sub); allowed {
			res := PassResultWithDetails(result.RuleID, fmt.Sprintf("Allowed failure: %s (Allowed by policy: %s)", result.Details, reason))
			res.Debug = result.Debug
			return res
		}
	}
	return result
}
