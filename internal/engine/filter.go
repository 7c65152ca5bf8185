package engine

import (
	"strings"

	"pubcheck/internal/config"
	"pubcheck/internal/submission"
)

// FilterSubmissions applies the include/exclude patterns and the submission limit.
// Patterns are matched case-insensitively against the primary DOI, or against
// its suffix when the pattern has no '/'. Submissions
// without an identifier are kept unless Include is set; Evaluate will report them.
func FilterSubmissions(subs []*submission.Submission, cfg *config.Config) []*submission.Submission {
	if cfg == nil {
		panic("engine.FilterSubmissions: cfg must not be nil")
	}

	includePatterns := cfg.Input.Include
	excludePatterns := cfg.Input.Exclude

	var filtered []*submission.Submission
	for _, s := range subs {
		if s == nil {
			continue
		}
		doi, err := s.PrimaryDOI()
		if err != nil {
			if len(includePatterns) > 0 {
				continue
			}
			filtered = append(filtered, s)
			continue
		}
		doi = strings.ToLower(doi)

		// If Include is set, must match at least one
		if len(includePatterns) > 0 && !matchesAnyPattern(includePatterns, doi) {
			continue
		}

		// If Exclude is set, must not match any
		if len(excludePatterns) > 0 && matchesAnyPattern(excludePatterns, doi) {
			continue
		}

		filtered = append(filtered, s)
	}

	if cfg.Input.MaxSubmissions > 0 && len(filtered) > cfg.Input.MaxSubmissions {
		filtered = filtered[:cfg.Input.MaxSubmissions]
	}

	return filtered
}

func matchesAnyPattern(patterns []string, doi string) bool {
	for _, p := range patterns {
		if submission.MatchDOI(p, doi) {
			return true
		}
	}
	return false
}
