package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pubcheck/internal/rules"
)

func TestMarkdownReportContract(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "pubcheck-report.md")

	s, err := NewReportSink(reportPath)
	if err != nil {
		t.Fatalf("NewReportSink failed: %v", err)
	}

	late := newVerdict("10.1/late",
		rules.PassResult("files"),
		rules.FailResultWithDebug("in_time", "Arrived 30 hours later than creation date on crossref.org.",
			map[string]string{"registry_created": "2021-01-01 00:00:00", "received": "2021-01-02 06:00:00"}),
		rules.PassResult("author_rights"),
	)
	late.RecordID = "rec-1"
	broken := newVerdict("10.1/broken",
		rules.PassResult("files"),
		rules.ErrorResult("in_time", "Evaluation failed: registry lookup: 503 Service Unavailable"),
		rules.PassResult("author_rights"),
	)
	clean := newVerdict("10.1/clean", rules.PassResult("files"), rules.PassResult("in_time"), rules.PassResult("author_rights"))

	_ = s.Write(Event{Type: EventRunStarted, Submissions: 3})
	for _, v := range []any{late, broken, clean} {
		if err := s.Write(v); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	_ = s.Write(Event{Type: EventRunFinished, ExitCode: 2})

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(b)

	required := []string{
		"# pubcheck Compliance Report",
		"## Summary",
		"- Submissions evaluated: 3",
		"- Compliant: 1",
		"- Non-compliant: 1",
		"- Evaluation errors: 1",
		"- Exit code: 2",
		"## Rule outcomes",
		"| in_time | 1 | 1 | 1 |",
		"### Most frequent failures",
		"- **in_time**: 1 submission (10.1/late)",
		"## Non-compliant submissions",
		"### 10.1/late",
		"Record: `rec-1`",
		"- **in_time** (FAIL): Arrived 30 hours later than creation date on crossref.org.",
		"  - received: 2021-01-02 06:00:00",
		"  - registry_created: 2021-01-01 00:00:00",
		"## Evaluation errors",
		"- **registry lookup: 503 Service Unavailable**: 1 submission (10.1/broken)",
		"  - Rules: in_time",
		"## Rules evaluated",
	}
	for _, want := range required {
		if !strings.Contains(out, want) {
			t.Fatalf("expected report to contain %q; got:\n%s", want, out)
		}
	}

	if strings.Contains(out, "### 10.1/clean") {
		t.Errorf("compliant submission should not be listed as non-compliant")
	}

	// Rules keep registry order rather than alphabetical order.
	files := strings.Index(out, "- files\n")
	inTime := strings.Index(out, "- in_time\n")
	authorRights := strings.Index(out, "- author_rights\n")
	if !(files < inTime && inTime < authorRights) {
		t.Errorf("rules evaluated not in registry order:\n%s", out)
	}
}

func TestMarkdownReport_Empty(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "empty.md")
	s, err := NewReportSink(reportPath)
	if err != nil {
		t.Fatalf("NewReportSink failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	b, _ := os.ReadFile(reportPath)
	out := string(b)
	for _, want := range []string{"- Submissions evaluated: 0", "No rules evaluated.", "## Evaluation errors\n\n- None"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in empty report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Exit code") {
		t.Fatalf("exit code should be omitted without run.finished:\n%s", out)
	}
}

func TestNormalizeErrorReason(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Evaluation failed: boom", want: "boom"},
		{in: "  multiple\n  spaces  ", want: "multiple spaces"},
		{in: "", want: "Unknown error"},
		{in: strings.Repeat("x", 130), want: strings.Repeat("x", 117) + "..."},
	}
	for _, tt := range tests {
		if got := normalizeErrorReason(tt.in); got != tt.want {
			t.Errorf("normalizeErrorReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
