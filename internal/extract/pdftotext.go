package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultPDFToTextBinary = "pdftotext"
	defaultExtractTimeout  = 2 * time.Minute
	maxStderrInError       = 512
)

// PDFToText extracts text by running the poppler `pdftotext` tool.
type PDFToText struct {
	// Binary is the executable name or path. Defaults to "pdftotext".
	Binary string
	// HTTPClient downloads remote documents. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Timeout bounds one extraction when ctx has no deadline.
	Timeout time.Duration

	logger *slog.Logger
}

func NewPDFToText(binary string, httpClient *http.Client) *PDFToText {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultPDFToTextBinary
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PDFToText{
		Binary:     binary,
		HTTPClient: httpClient,
		Timeout:    defaultExtractTimeout,
		logger:     slog.Default().With("component", "extract"),
	}
}

func (p *PDFToText) ExtractText(ctx context.Context, location string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("ExtractText: nil PDFToText")
	}
	bin, err := exec.LookPath(p.binary())
	if err != nil {
		return "", fmt.Errorf("%w: %s not found: %v", ErrUnavailable, p.binary(), err)
	}

	// Keep this bounded so a stuck download or a pathological document
	// doesn't hang the evaluation.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	path, cleanup, err := p.localize(ctx, location)
	if err != nil {
		return "", err
	}
	defer cleanup()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-enc", "UTF-8", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderrInError {
			msg = msg[:maxStderrInError]
		}
		if msg != "" {
			return "", fmt.Errorf("pdftotext %s: %w: %s", location, err, msg)
		}
		return "", fmt.Errorf("pdftotext %s: %w", location, err)
	}

	p.log().Debug("extracted text", "location", location, "bytes", stdout.Len(), "duration", time.Since(start))
	return stdout.String(), nil
}

func (p *PDFToText) binary() string {
	if strings.TrimSpace(p.Binary) == "" {
		return DefaultPDFToTextBinary
	}
	return p.Binary
}

func (p *PDFToText) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// localize returns a local file path for location, downloading remote documents to
// a temporary file removed by cleanup.
func (p *PDFToText) localize(ctx context.Context, location string) (path string, cleanup func(), err error) {
	noop := func() {}
	location = strings.TrimSpace(location)
	if location == "" {
		return "", noop, fmt.Errorf("empty document location")
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (a one letter scheme is a Windows drive).
		return location, noop, nil
	}

	switch u.Scheme {
	case "file":
		return u.Path, noop, nil
	case "http", "https":
		path, err := p.download(ctx, location)
		if err != nil {
			return "", noop, err
		}
		return path, func() { _ = os.Remove(path) }, nil
	default:
		return "", noop, fmt.Errorf("unsupported document location scheme %q", u.Scheme)
	}
}

func (p *PDFToText) download(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: unexpected status %s", location, resp.Status)
	}

	f, err := os.CreateTemp("", "pubcheck-*.pdf")
	if err != nil {
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("download %s: %w", location, err)
	}
	return f.Name(), nil
}
