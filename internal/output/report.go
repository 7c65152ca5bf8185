package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"pubcheck/internal/rules"
	"pubcheck/internal/verdict"
)

// ReportSink renders a Markdown compliance report when closed.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	verdicts     []*verdict.Verdict
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case *verdict.Verdict:
		s.verdicts = append(s.verdicts, t)
	case Event:
		if t.Type == EventRunFinished {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	verdicts := make([]*verdict.Verdict, len(s.verdicts))
	copy(verdicts, s.verdicts)
	sort.SliceStable(verdicts, func(i, j int) bool {
		return verdicts[i].Submission < verdicts[j].Submission
	})

	stats := computeRuleStats(verdicts)
	var passed, failed, errored int
	for _, v := range verdicts {
		switch v.Status() {
		case rules.StatusPass:
			passed++
		case rules.StatusFail:
			failed++
		case rules.StatusError:
			errored++
		}
	}

	var b strings.Builder
	b.WriteString("# pubcheck Compliance Report\n\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("- Submissions evaluated: %d\n", len(verdicts)))
	b.WriteString(fmt.Sprintf("- Compliant: %d\n", passed))
	b.WriteString(fmt.Sprintf("- Non-compliant: %d\n", failed))
	b.WriteString(fmt.Sprintf("- Evaluation errors: %d\n", errored))
	if s.haveExitCode {
		b.WriteString(fmt.Sprintf("- Exit code: %d\n", s.exitCode))
	}
	b.WriteString("\n")

	// --- Rule outcomes ---
	b.WriteString("## Rule outcomes\n\n")
	if len(stats) == 0 {
		b.WriteString("No rules evaluated.\n\n")
	} else {
		b.WriteString("| Rule | PASS | FAIL | ERROR |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, rs := range stats {
			b.WriteString(fmt.Sprintf("| %s | %d | %d | %d |\n", rs.RuleID, rs.Pass, rs.Fail, rs.Error))
		}
		b.WriteString("\n")
	}

	// --- Most failed rules ---
	if top := mostFailedRules(stats, 3); len(top) > 0 {
		b.WriteString("### Most frequent failures\n\n")
		for _, rs := range top {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", rs.RuleID, formatSubmissionList(rs.Failing, 3)))
		}
		b.WriteString("\n")
	}

	// --- Non-compliant submissions ---
	b.WriteString("## Non-compliant submissions\n\n")
	wroteAny := false
	for _, v := range verdicts {
		if v.Passed {
			continue
		}
		wroteAny = true
		b.WriteString(fmt.Sprintf("### %s\n", v.Submission))
		if v.RecordID != "" {
			b.WriteString(fmt.Sprintf("Record: `%s`\n\n", v.RecordID))
		}
		for _, r := range v.Checks.Results() {
			if r.Check {
				continue
			}
			b.WriteString(fmt.Sprintf("- **%s** (%s)", r.RuleID, r.Status))
			if r.Details != "" {
				b.WriteString(": " + r.Details)
			}
			b.WriteString("\n")
			for _, line := range renderDebug(r.Debug) {
				b.WriteString("  - " + line + "\n")
			}
		}
		b.WriteString("\n")
	}
	if !wroteAny {
		b.WriteString("- None\n\n")
	}

	// --- Errors ---
	b.WriteString("## Evaluation errors\n\n")
	groups := groupErrors(verdicts)
	if len(groups) == 0 {
		b.WriteString("- None\n\n")
	} else {
		for _, g := range groups {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", g.Reason, formatSubmissionList(g.Submissions, 5)))
			b.WriteString(fmt.Sprintf("  - Rules: %s\n", strings.Join(g.Rules, ", ")))
		}
		b.WriteString("\n")
	}

	// --- Rules evaluated ---
	b.WriteString("## Rules evaluated\n")
	if len(stats) == 0 {
		b.WriteString("- None\n\n")
	} else {
		for _, rs := range stats {
			b.WriteString(fmt.Sprintf("- %s\n", rs.RuleID))
		}
		b.WriteString("\n")
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
