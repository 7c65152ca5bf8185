package crossref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	if _, err := NewClient(WithBaseURL("not a url")); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}

func TestClient_CreatedAt(t *testing.T) {
	var gotPath, gotAgent string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"status":"ok","message":{"created":{"date-parts":[[2021,1,1]],"date-time":"2021-01-01T00:00:00+02:00"}}}`)
	}, WithMailto("ops@example.org"))

	got, err := c.CreatedAt(context.Background(), "10.1016/j.physletb.2021.136000")
	if err != nil {
		t.Fatalf("CreatedAt failed: %v", err)
	}
	if want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
	if gotPath != "/works/10.1016/j.physletb.2021.136000" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAgent != "pubcheck (mailto:ops@example.org)" {
		t.Errorf("unexpected user agent %q", gotAgent)
	}
}

func TestClient_CreatedAt_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantIs    error
		wantCode  int
		wantInMsg string
	}{
		{name: "not found", status: http.StatusNotFound, body: "Resource not found.", wantCode: 404, wantInMsg: "Resource not found."},
		{name: "server error", status: http.StatusServiceUnavailable, body: "", wantCode: 503, wantInMsg: "Service Unavailable"},
		{name: "invalid json", status: http.StatusOK, body: `{"message":`, wantIs: ErrMalformedResponse},
		{name: "missing created", status: http.StatusOK, body: `{"message":{"title":["x"]}}`, wantIs: ErrMalformedResponse},
		{name: "bad timestamp", status: http.StatusOK, body: `{"message":{"created":{"date-time":"yesterday"}}}`, wantIs: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.CreatedAt(context.Background(), "10.1/x")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, err)
			}
			if tt.wantCode != 0 {
				var er *ErrorResponse
				if !errors.As(err, &er) {
					t.Fatalf("expected *ErrorResponse, got %T", err)
				}
				if er.StatusCode != tt.wantCode {
					t.Errorf("want status %d, got %d", tt.wantCode, er.StatusCode)
				}
				if !strings.Contains(er.Error(), tt.wantInMsg) {
					t.Errorf("expected %q in %q", tt.wantInMsg, er.Error())
				}
			}
		})
	}
}

func TestClient_CreatedAt_NoRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.CreatedAt(context.Background(), "10.1/x"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestClient_CreatedAt_CoalescesConcurrentLookups(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		fmt.Fprint(w, `{"message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.CreatedAt(context.Background(), "10.1/x"); err != nil {
				t.Errorf("CreatedAt error: %v", err)
			}
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("got %d requests, want 1", n)
	}
}

func TestClient_CreatedAt_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		arrived <- struct{}{}
		<-release
		fmt.Fprint(w, `{"message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.CreatedAt(ctx, "10.1/x")
		firstErr <- err
	}()
	<-arrived

	type result struct {
		created time.Time
		err     error
	}
	second := make(chan result, 1)
	go func() {
		created, err := c.CreatedAt(context.Background(), "10.1/X")
		second <- result{created, err}
	}()
	time.Sleep(100 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to see context.Canceled, got %v", err)
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second caller failed: %v", res.err)
	}
	if want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC); !res.created.Equal(want) {
		t.Errorf("got %v, want %v", res.created, want)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("got %d requests, want 1", n)
	}
}

func TestClient_CreatedAt_SequentialLookupsAreNotCached(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	})

	for i := 0; i < 2; i++ {
		if _, err := c.CreatedAt(context.Background(), "10.1/x"); err != nil {
			t.Fatalf("CreatedAt error: %v", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("got %d requests, want 2", n)
	}
}

func TestClient_WithVerbose_Logs(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	}, WithVerbose(true, &buf))

	if _, err := c.CreatedAt(context.Background(), "10.1/x"); err != nil {
		t.Fatalf("CreatedAt error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[verbose] crossref api: GET ") || !strings.Contains(out, "200 OK") {
		t.Fatalf("unexpected verbose output: %q", out)
	}
}

func TestClient_UpdatesRateFromHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Limit", "5")
		w.Header().Set("X-Rate-Limit-Interval", "1s")
		fmt.Fprint(w, `{"message":{"created":{"date-time":"2021-01-01T00:00:00Z"}}}`)
	})

	if _, err := c.CreatedAt(context.Background(), "10.1/x"); err != nil {
		t.Fatalf("CreatedAt error: %v", err)
	}
	limit, interval := c.Limiter().Limit()
	if limit != 5 || interval != time.Second {
		t.Fatalf("expected 5/1s, got %d/%s", limit, interval)
	}
}
