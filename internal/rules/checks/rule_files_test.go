package checks

import (
	"context"
	"reflect"
	"testing"

	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

func filesOf(types ...string) *submission.Submission {
	sub := &submission.Submission{}
	for _, t := range types {
		sub.Files = append(sub.Files, submission.File{Type: t, URL: "file." + t})
	}
	return sub
}

func TestFilesRule_Evaluate(t *testing.T) {
	rule := &FilesRule{}

	tests := []struct {
		name           string
		sub            *submission.Submission
		expectedStatus rules.Status
		expectedDetail string
	}{
		{
			name:           "PASS with xml and pdf",
			sub:            filesOf("xml", "pdf"),
			expectedStatus: rules.StatusPass,
			expectedDetail: "Available files: xml, pdf",
		},
		{
			name:           "PASS with xml and pdf/a",
			sub:            filesOf("pdf/a", "xml"),
			expectedStatus: rules.StatusPass,
			expectedDetail: "Available files: pdf/a, xml",
		},
		{
			name:           "PASS with tags in mixed case",
			sub:            filesOf(" XML", "PDF/A"),
			expectedStatus: rules.StatusPass,
			expectedDetail: "Available files:  XML, PDF/A",
		},
		{
			name:           "FAIL without pdf",
			sub:            filesOf("xml"),
			expectedStatus: rules.StatusFail,
			expectedDetail: "No pdf file. Available files: xml",
		},
		{
			name:           "FAIL without xml",
			sub:            filesOf("pdf"),
			expectedStatus: rules.StatusFail,
			expectedDetail: "No xml file. Available files: pdf",
		},
		{
			name:           "FAIL with no files",
			sub:            filesOf(),
			expectedStatus: rules.StatusFail,
			expectedDetail: "No xml file. No pdf file. Available files: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rule.Evaluate(context.Background(), tt.sub, nil)
			if err != nil {
				t.Fatalf("Evaluate error: %v", err)
			}
			if res.Status != tt.expectedStatus {
				t.Errorf("expected status %v, got %v", tt.expectedStatus, res.Status)
			}
			if res.Check != (tt.expectedStatus == rules.StatusPass) {
				t.Errorf("check flag %v does not match status %v", res.Check, res.Status)
			}
			if res.Details != tt.expectedDetail {
				t.Errorf("expected details %q, got %q", tt.expectedDetail, res.Details)
			}
			if !reflect.DeepEqual(res.Debug, tt.sub.FileTypes()) {
				t.Errorf("expected debug %v, got %v", tt.sub.FileTypes(), res.Debug)
			}
		})
	}
}
