package submission

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNoIdentifier is returned when a submission carries no external identifier.
var ErrNoIdentifier = errors.New("submission has no identifier")

// Submission is the work object under evaluation.
//
// It is owned by the calling workflow. The compliance pipeline reads it but never
// mutates or persists it; derived data (extracted text, registry timestamps) lives in
// a per-evaluation data.EvalContext instead.
type Submission struct {
	// RecID is the internal record identifier, if the workflow already knows it.
	RecID string `json:"recid,omitempty"`

	// DOIs lists the external identifiers. The first entry is the primary identifier.
	DOIs []Identifier `json:"dois"`

	// Files lists the associated files with their type tags and locations.
	Files []File `json:"files"`

	AcquisitionSource AcquisitionSource `json:"acquisition_source"`

	// Source records where the submission was loaded from (file path). Not serialized.
	Source string `json:"-"`
}

type Identifier struct {
	Value string `json:"value"`
}

// File is one file attached to a submission.
type File struct {
	// Type is the type tag, e.g. "xml", "pdf" or "pdf/a".
	Type string `json:"filetype"`
	// URL is the location reference: a local path, file:// URL or http(s) URL.
	URL string `json:"url"`
}

// NormalizedType returns the type tag trimmed and lowercased.
func (f File) NormalizedType() string {
	return strings.ToLower(strings.TrimSpace(f.Type))
}

// IsDocument reports whether the file is a pdf or pdf/a document.
func (f File) IsDocument() bool {
	switch f.NormalizedType() {
	case "pdf", "pdf/a":
		return true
	}
	return false
}

// IsXML reports whether the file is the xml record.
func (f File) IsXML() bool {
	return f.NormalizedType() == "xml"
}

type AcquisitionSource struct {
	Date   string `json:"date"`
	Method string `json:"method,omitempty"`
	Source string `json:"source,omitempty"`
}

// PrimaryDOI returns the first identifier value.
func (s *Submission) PrimaryDOI() (string, error) {
	if s == nil || len(s.DOIs) == 0 {
		return "", ErrNoIdentifier
	}
	v := strings.TrimSpace(s.DOIs[0].Value)
	if v == "" {
		return "", ErrNoIdentifier
	}
	return v, nil
}

// MatchDOI reports whether a glob pattern matches a DOI, ignoring case.
// A pattern containing '/' is matched against the whole DOI. Otherwise it is
// matched against the suffix after the registrant prefix, so "*physletb*"
// selects 10.1016/j.physletb.2021.1.
func MatchDOI(pattern, doi string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	doi = strings.ToLower(doi)
	if strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, doi)
		return matched
	}
	_, suffix, ok := strings.Cut(doi, "/")
	if !ok {
		suffix = doi
	}
	matched, _ := path.Match(pattern, suffix)
	return matched
}

// Label returns a short human-readable name for the submission.
func (s *Submission) Label() string {
	if s == nil {
		return ""
	}
	if doi, err := s.PrimaryDOI(); err == nil {
		return doi
	}
	if s.RecID != "" {
		return "recid:" + s.RecID
	}
	return s.Source
}

// FileTypes returns the type tags of all files, in file order.
func (s *Submission) FileTypes() []string {
	if s == nil {
		return nil
	}
	types := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		types = append(types, f.Type)
	}
	return types
}

// ReceivedAt parses the acquisition timestamp as a naive instant.
func (s *Submission) ReceivedAt() (time.Time, error) {
	if s == nil {
		return time.Time{}, errors.New("submission is nil")
	}
	raw := strings.TrimSpace(s.AcquisitionSource.Date)
	if raw == "" {
		return time.Time{}, errors.New("submission has no acquisition date")
	}
	t, err := ParseNaive(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid acquisition date: %w", err)
	}
	return t, nil
}

var naiveLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseNaive parses a timestamp in one of the accepted layouts and strips its zone.
func ParseNaive(raw string) (time.Time, error) {
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return StripZone(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// StripZone keeps the wall clock of t and relabels it as UTC.
func StripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
