package engine

import (
	"fmt"
	"net/http"
	"os"

	"pubcheck/internal/config"
	"pubcheck/internal/crossref"
	"pubcheck/internal/extract"
	"pubcheck/internal/fetcher"
	"pubcheck/internal/metrics"
	"pubcheck/internal/store"
)

// FromConfig builds an Engine with the production collaborators: the Crossref
// client, the pdftotext extractor, the configured verdict store and a metrics
// collector. Call Close when done.
func FromConfig(cfg *config.Config) (*Engine, error) {
	client, err := crossref.NewClient(
		crossref.WithBaseURL(cfg.Registry.BaseURL),
		crossref.WithMailto(cfg.Registry.Mailto),
		crossref.WithTimeout(cfg.Registry.Timeout),
		crossref.WithVerbose(cfg.Runtime.Verbose, os.Stderr),
	)
	if err != nil {
		return nil, err
	}

	extractor := newExtractor(cfg.Extraction)

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open verdict store: %w", err)
	}

	return NewEngine(
		fetcher.NewFetcher(extractor, client),
		WithStore(st),
		WithMetrics(metrics.NewCollector(nil)),
		WithVerbose(cfg.Runtime.Verbose),
	), nil
}

// newExtractor bounds downloads and extraction by the extraction timeout, not the
// registry timeout.
func newExtractor(cfg config.Extraction) *extract.PDFToText {
	p := extract.NewPDFToText(cfg.PDFToText, &http.Client{Timeout: cfg.Timeout})
	if cfg.Timeout > 0 {
		p.Timeout = cfg.Timeout
	}
	return p
}

// Close releases the verdict store.
func (e *Engine) Close() error {
	if e == nil || e.store == nil {
		return nil
	}
	return e.store.Close()
}
