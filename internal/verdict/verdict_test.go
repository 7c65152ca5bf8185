package verdict

import (
	"encoding/json"
	"strings"
	"testing"

	"pubcheck/internal/rules"
)

func TestVerdict_Status(t *testing.T) {
	tests := []struct {
		name string
		v    Verdict
		want rules.Status
	}{
		{name: "passed", v: Verdict{Passed: true}, want: rules.StatusPass},
		{name: "failed", v: Verdict{}, want: rules.StatusFail},
		{name: "errored wins", v: Verdict{Passed: true, Errored: true}, want: rules.StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Status(); got != tt.want {
				t.Fatalf("want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestVerdict_JSONKeepsCheckOrder(t *testing.T) {
	checks := rules.NewResultSet()
	for _, id := range []string{"files", "in_time", "founded_by", "author_rights", "cc_licence"} {
		checks.Set(id, rules.PassResult(id))
	}
	v := Verdict{ID: "v1", Submission: "10.1/x", Passed: true, Checks: checks}

	raw, err := json.Marshal(&v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(raw)
	last := -1
	for _, id := range checks.Names() {
		idx := strings.Index(s, `"`+id+`":`)
		if idx <= last {
			t.Fatalf("check %q out of order in %s", id, s)
		}
		last = idx
	}

	counts := v.Counts()
	if counts[rules.StatusPass] != 5 {
		t.Fatalf("expected 5 passes, got %v", counts)
	}
}
