package crossref

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is returned when a response decodes but lacks the expected
// fields or carries an unparseable timestamp.
var ErrMalformedResponse = errors.New("malformed crossref response")

// ErrorResponse reports a non-2xx answer from the registry.
type ErrorResponse struct {
	Method     string
	URL        string
	StatusCode int
	// Message is the response body (trimmed), which Crossref uses for plain text errors.
	Message string
}

func (e *ErrorResponse) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, msg)
}

// NotFound reports whether the registry does not know the identifier.
func (e *ErrorResponse) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
