package checks

import (
	"context"
	"strings"

	"pubcheck/internal/data"
	"pubcheck/internal/rules"
	"pubcheck/internal/submission"
)

type FilesRule struct{}

func init() {
	rules.Register(&FilesRule{})
}

func (r *FilesRule) ID() string {
	return "files"
}

func (r *FilesRule) Title() string {
	return "Required Files Present"
}

func (r *FilesRule) Description() string {
	return "Verifies that the submission carries an xml file and a pdf or pdf/a file."
}

func (r *FilesRule) Dependencies() []data.DependencyKey {
	return nil
}

func (r *FilesRule) Evaluate(ctx context.Context, sub *submission.Submission, dc data.DataContext) (rules.Result, error) {
	types := sub.FileTypes()
	if types == nil {
		types = []string{}
	}

	var hasXML, hasPDF bool
	for _, f := range sub.Files {
		hasXML = hasXML || f.IsXML()
		hasPDF = hasPDF || f.IsDocument()
	}

	var details strings.Builder
	if !hasXML {
		details.WriteString("No xml file. ")
	}
	if !hasPDF {
		details.WriteString("No pdf file. ")
	}
	details.WriteString("Available files: ")
	details.WriteString(strings.Join(types, ", "))

	if hasXML && hasPDF {
		return rules.PassResultWithDebug(r.ID(), details.String(), types), nil
	}
	return rules.FailResultWithDebug(r.ID(), details.String(), types), nil
}
