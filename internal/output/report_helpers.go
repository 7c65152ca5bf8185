package output

import (
	"fmt"
	"sort"
	"strings"

	"pubcheck/internal/rules"
	"pubcheck/internal/verdict"
)

type ruleStats struct {
	RuleID  string
	Pass    int
	Fail    int
	Error   int
	Failing []string
}

// computeRuleStats tallies outcomes per rule, keeping the order in which rules first
// appear (registry order for verdicts produced by the engine).
func computeRuleStats(verdicts []*verdict.Verdict) []*ruleStats {
	byRule := make(map[string]*ruleStats)
	var order []string
	for _, v := range verdicts {
		for _, r := range v.Checks.Results() {
			rs, ok := byRule[r.RuleID]
			if !ok {
				rs = &ruleStats{RuleID: r.RuleID}
				byRule[r.RuleID] = rs
				order = append(order, r.RuleID)
			}
			switch r.Status {
			case rules.StatusPass:
				rs.Pass++
			case rules.StatusFail:
				rs.Fail++
				rs.Failing = append(rs.Failing, v.Submission)
			case rules.StatusError:
				rs.Error++
			}
		}
	}

	out := make([]*ruleStats, 0, len(order))
	for _, id := range order {
		out = append(out, byRule[id])
	}
	return out
}

func mostFailedRules(stats []*ruleStats, n int) []*ruleStats {
	var failing []*ruleStats
	for _, rs := range stats {
		if rs.Fail > 0 {
			failing = append(failing, rs)
		}
	}
	sort.SliceStable(failing, func(i, j int) bool {
		return failing[i].Fail > failing[j].Fail
	})
	if len(failing) > n {
		return failing[:n]
	}
	return failing
}

type errorGroup struct {
	Reason      string
	Submissions []string
	Rules       []string
}

func groupErrors(verdicts []*verdict.Verdict) []errorGroup {
	subs := make(map[string]map[string]struct{})
	ruleIDs := make(map[string]map[string]struct{})
	for _, v := range verdicts {
		for _, r := range v.Checks.Results() {
			if r.Status != rules.StatusError {
				continue
			}
			reason := normalizeErrorReason(r.Details)
			if subs[reason] == nil {
				subs[reason] = make(map[string]struct{})
				ruleIDs[reason] = make(map[string]struct{})
			}
			subs[reason][v.Submission] = struct{}{}
			ruleIDs[reason][r.RuleID] = struct{}{}
		}
	}

	out := make([]errorGroup, 0, len(subs))
	for reason := range subs {
		out = append(out, errorGroup{
			Reason:      reason,
			Submissions: sortedKeys(subs[reason]),
			Rules:       sortedKeys(ruleIDs[reason]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Submissions) != len(out[j].Submissions) {
			return len(out[i].Submissions) > len(out[j].Submissions)
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// normalizeErrorReason collapses whitespace, strips the evaluation prefix and
// truncates long messages.
func normalizeErrorReason(errText string) string {
	s := strings.Join(strings.Fields(errText), " ")
	s = strings.TrimPrefix(s, "Evaluation failed: ")
	if s == "" {
		return "Unknown error"
	}
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}

// renderDebug turns a result's debug payload into sorted "key: value" lines.
func renderDebug(debug any) []string {
	switch d := debug.(type) {
	case nil:
		return nil
	case map[string]string:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, d[k]))
		}
		return lines
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, d[k]))
		}
		return lines
	case []string:
		return []string{"debug: " + strings.Join(d, ", ")}
	case []any:
		parts := make([]string, 0, len(d))
		for _, p := range d {
			parts = append(parts, fmt.Sprint(p))
		}
		return []string{"debug: " + strings.Join(parts, ", ")}
	default:
		return []string{fmt.Sprintf("debug: %v", d)}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func formatSubmissionList(subs []string, max int) string {
	if len(subs) == 0 {
		return ""
	}
	noun := "submissions"
	if len(subs) == 1 {
		noun = "submission"
	}
	if len(subs) <= max {
		return fmt.Sprintf("%d %s (%s)", len(subs), noun, strings.Join(subs, ", "))
	}
	return fmt.Sprintf("%d %s (%s, +%d more)", len(subs), noun, strings.Join(subs[:max], ", "), len(subs)-max)
}
