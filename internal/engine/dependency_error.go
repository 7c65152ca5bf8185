package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pubcheck/internal/crossref"
	"pubcheck/internal/extract"
)

// presentDependencyError renders a rule error for result details. Unless verbose, it
// avoids leaking request URLs into reports.
func presentDependencyError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}

	full := strings.TrimSpace(err.Error())
	if verbose {
		return full
	}

	// Prefer the structured registry error.
	var er *crossref.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		status := fmt.Sprintf("%d %s", er.StatusCode, http.StatusText(er.StatusCode))
		if msg == "" || len(msg) > 200 {
			return fmt.Sprintf("registry lookup failed (%s)", strings.TrimSpace(status))
		}
		return fmt.Sprintf("registry lookup failed (%s): %s", strings.TrimSpace(status), msg)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out: " + scrubRequestFromErrorString(full)
	case errors.Is(err, extract.ErrUnavailable):
		return "text extraction unavailable: " + scrubRequestFromErrorString(full)
	}

	if scrubbed := scrubRequestFromErrorString(full); scrubbed != "" {
		return scrubbed
	}
	return "request failed"
}

// scrubRequestFromErrorString drops request prefixes such as
//
//	GET https://api.crossref.org/works/10.1/x: 503 ...
//	Get "https://api.crossref.org/works/10.1/x": dial tcp ...
//
// keeping whatever context precedes them.
func scrubRequestFromErrorString(s string) string {
	for _, m := range []string{"GET ", "Get \""} {
		i := strings.Index(s, m+"http")
		if i < 0 {
			continue
		}
		rest := s[i+len(m):]
		j := strings.Index(rest, ": ")
		if j < 0 {
			return strings.TrimSpace(s[:i])
		}
		return strings.TrimSpace(s[:i] + rest[j+2:])
	}
	return s
}
