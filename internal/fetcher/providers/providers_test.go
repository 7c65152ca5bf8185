package providers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pubcheck/internal/data"
	"pubcheck/internal/fetcher"
	_ "pubcheck/internal/fetcher/providers"
	"pubcheck/internal/submission"
)

type countingExtractor struct {
	calls     int
	locations []string
	text      string
	err       error
}

func (c *countingExtractor) ExtractText(_ context.Context, location string) (string, error) {
	c.calls++
	c.locations = append(c.locations, location)
	return c.text, c.err
}

type stubOracle struct {
	created time.Time
	err     error
	dois    []string
}

func (s *stubOracle) CreatedAt(_ context.Context, doi string) (time.Time, error) {
	s.dois = append(s.dois, doi)
	return s.created, s.err
}

func TestExtractedText_ExtractsOncePerEvaluation(t *testing.T) {
	ex := &countingExtractor{text: "funded by SCOAP3 under CC-BY"}
	f := fetcher.NewFetcher(ex, nil)
	sub := &submission.Submission{Files: []submission.File{
		{Type: "xml", URL: "a.xml"},
		{Type: "PDF", URL: "first.pdf"},
		{Type: "pdf/a", URL: "second.pdf"},
	}}

	ec := data.NewEvalContext(f.Resolver(sub))
	for i := 0; i < 2; i++ {
		val, err := ec.Get(context.Background(), data.DepExtractedText)
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if val != ex.text {
			t.Fatalf("unexpected text %v", val)
		}
	}

	if ex.calls != 1 {
		t.Fatalf("expected extractor to be called once, got %d", ex.calls)
	}
	if ex.locations[0] != "first.pdf" {
		t.Fatalf("expected first pdf to be used, got %q", ex.locations[0])
	}
}

func TestExtractedText_NoDocument(t *testing.T) {
	ex := &countingExtractor{text: "should not be used"}
	f := fetcher.NewFetcher(ex, nil)
	sub := &submission.Submission{Files: []submission.File{{Type: "xml", URL: "a.xml"}}}

	val, err := f.Fetch(context.Background(), sub, data.DepExtractedText)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty text, got %q", val)
	}
	if ex.calls != 0 {
		t.Fatalf("expected extractor not to be called, got %d calls", ex.calls)
	}
}

func TestExtractedText_ExtractorError(t *testing.T) {
	boom := errors.New("corrupt pdf")
	f := fetcher.NewFetcher(&countingExtractor{err: boom}, nil)
	sub := &submission.Submission{Files: []submission.File{{Type: "pdf", URL: "a.pdf"}}}

	if _, err := f.Fetch(context.Background(), sub, data.DepExtractedText); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	if _, err := fetcher.NewFetcher(nil, nil).Fetch(context.Background(), sub, data.DepExtractedText); err == nil {
		t.Fatal("expected error without extractor")
	}
}

func TestRegistryCreated(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	oracle := &stubOracle{created: time.Date(2021, 1, 1, 0, 0, 0, 0, loc)}
	f := fetcher.NewFetcher(nil, oracle)
	sub := &submission.Submission{DOIs: []submission.Identifier{{Value: "10.1/a"}, {Value: "10.1/b"}}}

	val, err := f.Fetch(context.Background(), sub, data.DepRegistryCreated)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	got, ok := val.(time.Time)
	if !ok {
		t.Fatalf("unexpected type %T", val)
	}
	if !got.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected zone to be stripped, got %v", got)
	}
	if len(oracle.dois) != 1 || oracle.dois[0] != "10.1/a" {
		t.Fatalf("expected lookup of primary DOI, got %v", oracle.dois)
	}
}

func TestRegistryCreated_Errors(t *testing.T) {
	boom := errors.New("503 Service Unavailable")

	tests := []struct {
		name   string
		sub    *submission.Submission
		oracle fetcher.TimeOracle
		is     error
	}{
		{
			name:   "no identifier",
			sub:    &submission.Submission{},
			oracle: &stubOracle{},
			is:     submission.ErrNoIdentifier,
		},
		{
			name:   "lookup failure",
			sub:    &submission.Submission{DOIs: []submission.Identifier{{Value: "10.1/a"}}},
			oracle: &stubOracle{err: boom},
			is:     boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetcher.NewFetcher(nil, tt.oracle).Fetch(context.Background(), tt.sub, data.DepRegistryCreated)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}
}
