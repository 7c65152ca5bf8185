package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"pubcheck/internal/rules"
	"pubcheck/internal/verdict"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	verdicts        []*verdict.Verdict // For JSON array output
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses ...string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			st = strings.TrimSpace(st)
			if st == "" {
				continue
			}
			s.allowedStatuses[strings.ToUpper(st)] = true
		}
	}

	return s
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	// Filtering applies to the verdict status, not to individual checks.
	if len(s.allowedStatuses) > 0 {
		if vd, ok := v.(*verdict.Verdict); ok {
			if !s.allowedStatuses[string(vd.Status())] {
				return nil
			}
		}
	}

	switch s.format {
	case "json":
		vd, ok := v.(*verdict.Verdict)
		if !ok {
			return nil
		}
		s.verdicts = append(s.verdicts, vd)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		case *verdict.Verdict:
			if err := encoder.Encode(eventFromVerdict(t)); err != nil {
				return err
			}
			return flushIfPossible(s.writer)
		default:
			return nil
		}
	case "text":
		vd, ok := v.(*verdict.Verdict)
		if !ok {
			return nil
		}
		if err := writeTextVerdict(s.writer, vd); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func writeTextVerdict(w io.Writer, vd *verdict.Verdict) error {
	counts := vd.Counts()
	if _, err := fmt.Fprintf(w, "%s %s (%d/%d checks passed)\n",
		statusLabel(vd.Status()), vd.Submission, counts[rules.StatusPass], vd.Checks.Len()); err != nil {
		return err
	}
	for _, r := range vd.Checks.Results() {
		line := fmt.Sprintf("  %s %s", statusLabel(r.Status), r.RuleID)
		if r.Details != "" {
			line += " - " + r.Details
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

var statusColors = map[rules.Status]*color.Color{
	rules.StatusPass:  color.New(color.FgGreen),
	rules.StatusFail:  color.New(color.FgRed, color.Bold),
	rules.StatusError: color.New(color.FgYellow, color.Bold),
}

func statusLabel(st rules.Status) string {
	label := "[" + string(st) + "]"
	if c, ok := statusColors[st]; ok {
		return c.Sprint(label)
	}
	return label
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		out := s.verdicts
		if out == nil {
			out = []*verdict.Verdict{}
		}
		if err := encoder.Encode(out); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text", "ndjson":
		return nil
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}
