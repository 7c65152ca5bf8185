package providers

import (
	"context"
	"fmt"

	"pubcheck/internal/data"
	"pubcheck/internal/fetcher"
	"pubcheck/internal/submission"
)

type extractedTextFetcher struct{}

func (e *extractedTextFetcher) Key() data.DependencyKey {
	return data.DepExtractedText
}

// Fetch extracts the text of the first pdf or pdf/a file. A submission without such
// a file has no text: the empty string is returned and the extractor is not called.
func (e *extractedTextFetcher) Fetch(ctx context.Context, sub *submission.Submission, f *fetcher.Fetcher) (any, error) {
	doc, ok := firstDocument(sub)
	if !ok {
		f.Logger().Debug("no pdf file, using empty text", "submission", sub.Label())
		return "", nil
	}

	ex := f.Extractor()
	if ex == nil {
		return nil, fmt.Errorf("extract text: no text extractor configured")
	}
	text, err := ex.ExtractText(ctx, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", doc.URL, err)
	}
	return text, nil
}

func firstDocument(sub *submission.Submission) (submission.File, bool) {
	for _, file := range sub.Files {
		if file.IsDocument() {
			return file, true
		}
	}
	return submission.File{}, false
}

func init() {
	fetcher.RegisterDataFetcher(&extractedTextFetcher{})
}
