// Package crossref looks up DOI registration metadata in the Crossref REST API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pubcheck/internal/submission"
)

const (
	DefaultBaseURL = "https://api.crossref.org"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 1 << 10
)

type Client struct {
	HTTP    *http.Client
	baseURL string
	agent   string
	limiter *Limiter
	group   singleflight.Group
}

type options struct {
	baseURL   string
	mailto    string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	verbose   bool
	// writer controls where verbose HTTP logs are written (typically stderr) so
	// structured output on stdout stays clean and tests can capture logs.
	writer io.Writer
}

type Option func(*options)

func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithMailto adds a contact address to the User-Agent, which routes requests to
// Crossref's "polite" pool.
func WithMailto(addr string) Option {
	return func(o *options) { o.mailto = addr }
}

func WithUserAgent(agent string) Option {
	return func(o *options) { o.userAgent = agent }
}

// WithTimeout bounds each lookup. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	w    io.Writer
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] crossref api: %s %s\n", req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] crossref api: error after %s: %v\n", dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] crossref api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

func NewClient(opts ...Option) (*Client, error) {
	o := &options{
		baseURL:   DefaultBaseURL,
		userAgent: "pubcheck",
		timeout:   DefaultTimeout,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	base := strings.TrimRight(strings.TrimSpace(o.baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("crossref client: invalid base URL %q", o.baseURL)
	}

	transport := o.transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer}
	}

	agent := o.userAgent
	if m := strings.TrimSpace(o.mailto); m != "" {
		agent = fmt.Sprintf("%s (mailto:%s)", agent, m)
	}

	return &Client{
		HTTP:    &http.Client{Transport: transport, Timeout: o.timeout},
		baseURL: base,
		agent:   agent,
		limiter: NewLimiter(),
	}, nil
}

func (c *Client) Limiter() *Limiter {
	return c.limiter
}

type workResponse struct {
	Status  string `json:"status"`
	Message struct {
		Created *struct {
			DateTime string `json:"date-time"`
		} `json:"created"`
	} `json:"message"`
}

// CreatedAt returns the instant the DOI was created at Crossref, with its zone
// stripped. Concurrent lookups of the same DOI share one request; a caller whose
// context ends stops waiting without failing the others. Failures are not retried.
func (c *Client) CreatedAt(ctx context.Context, doi string) (time.Time, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return time.Time{}, fmt.Errorf("crossref: empty DOI")
	}

	// The shared request must outlive any single caller; the HTTP client timeout
	// still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strings.ToLower(doi), func() (any, error) {
		return c.createdAt(shared, doi)
	})
	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return time.Time{}, res.Err
		}
		return res.Val.(time.Time), nil
	}
}

func (c *Client) createdAt(ctx context.Context, doi string) (time.Time, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}

	u := c.baseURL + "/works/" + escapeDOI(doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("crossref: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()
	c.limiter.UpdateFromResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return time.Time{}, &ErrorResponse{
			Method:     req.Method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var work workResponse
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if work.Message.Created == nil || strings.TrimSpace(work.Message.Created.DateTime) == "" {
		return time.Time{}, fmt.Errorf("%w: missing message.created.date-time", ErrMalformedResponse)
	}
	created, err := submission.ParseNaive(strings.TrimSpace(work.Message.Created.DateTime))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return created, nil
}

// escapeDOI escapes each path segment of a DOI, keeping the slashes Crossref expects.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
