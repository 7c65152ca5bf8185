// Package extract turns document files into plain text for the text-based rules.
package extract

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the extraction backend cannot run at all.
var ErrUnavailable = errors.New("text extractor unavailable")

// TextExtractor returns the plain text of the document at location.
// location is a local path, a file:// URL or an http(s) URL.
type TextExtractor interface {
	ExtractText(ctx context.Context, location string) (string, error)
}

// Static serves text from a fixed map keyed by location. Unknown locations are an
// error. Useful for dry runs and tests.
type Static map[string]string

func (s Static) ExtractText(_ context.Context, location string) (string, error) {
	text, ok := s[location]
	if !ok {
		return "", fmt.Errorf("no text for %q", location)
	}
	return text, nil
}
