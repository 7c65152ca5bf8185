package output

import "pubcheck/internal/verdict"

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - verdict
// - run.finished
//
// JSON mode remains an aggregate array of verdicts.
type Event struct {
	Type        string           `json:"type"`
	Submission  string           `json:"submission,omitempty"`
	Verdict     *verdict.Verdict `json:"verdict,omitempty"`
	Submissions int              `json:"submissions,omitempty"`
	Rules       int              `json:"rules,omitempty"`
	ExitCode    int              `json:"exit_code,omitempty"`
}

const (
	EventRunStarted  = "run.started"
	EventVerdict     = "verdict"
	EventRunFinished = "run.finished"
)

func eventFromVerdict(v *verdict.Verdict) Event {
	return Event{Type: EventVerdict, Submission: v.Submission, Verdict: v}
}
