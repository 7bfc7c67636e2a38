package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mfenderov/newsbrief/pkg/models"
)

type fakeSummarizer struct {
	summary  string
	err      error
	lastBody string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	f.lastBody = body
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

const testPage = `<!DOCTYPE html>
<html>
<head><title>Quantum Leap Announced</title></head>
<body>
<article>
<h1>Quantum Leap Announced</h1>
<p>Researchers announced a working 1000-qubit machine on Friday. The device
ran error-corrected circuits for over an hour, a first for the field. The
team plans to publish full benchmarks next month, and rivals have already
promised to reproduce the results on their own hardware.</p>
<p>Industry observers called the milestone significant but cautioned that
practical applications remain years away. Funding agencies in three
countries said they would review their quantum programs in response.</p>
</article>
</body>
</html>`

func TestEnrich_UsesExtractedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	defer server.Close()

	summarizer := &fakeSummarizer{summary: "A condensed take."}
	e, err := New(Config{}, summarizer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidate := models.RawCandidate{
		Title:       "Quantum Leap Announced",
		Description: "provider blurb",
		URL:         server.URL + "/story",
	}

	enriched, err := e.Enrich(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if enriched.Description != "A condensed take." {
		t.Errorf("Description = %q, want the generated summary", enriched.Description)
	}
	if enriched.URL != candidate.URL {
		t.Errorf("URL changed: %q", enriched.URL)
	}
	if !strings.Contains(summarizer.lastBody, "1000-qubit") {
		t.Errorf("summarizer did not receive extracted content, got %q", summarizer.lastBody)
	}
}

func TestEnrich_FetchFailureFallsBackToDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	summarizer := &fakeSummarizer{summary: "summary from blurb"}
	e, err := New(Config{}, summarizer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidate := models.RawCandidate{
		Title:       "Gone Story",
		Description: "the provider blurb survives",
		URL:         server.URL + "/gone",
	}

	enriched, err := e.Enrich(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if summarizer.lastBody != "the provider blurb survives" {
		t.Errorf("summarizer body = %q, want the provider description", summarizer.lastBody)
	}
	if enriched.Description != "summary from blurb" {
		t.Errorf("Description = %q", enriched.Description)
	}
}

func TestEnrich_SummarizeFailureDropsCandidate(t *testing.T) {
	summarizer := &fakeSummarizer{err: fmt.Errorf("model down")}
	e, err := New(Config{}, summarizer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	candidate := models.RawCandidate{Title: "t", Description: "d", URL: "http://127.0.0.1:1/unreachable"}
	if _, err := e.Enrich(context.Background(), candidate); err == nil {
		t.Error("Enrich() should fail when summarization fails")
	}
}

func TestEnrich_FillsMissingTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	defer server.Close()

	summarizer := &fakeSummarizer{summary: "s"}
	e, err := New(Config{}, summarizer)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	enriched, err := e.Enrich(context.Background(), models.RawCandidate{
		Description: "d",
		URL:         server.URL + "/story",
	})
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if enriched.Title != "Quantum Leap Announced" {
		t.Errorf("Title = %q, want the page title", enriched.Title)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", "<html><head><title>Hello</title></head></html>", "Hello"},
		{"whitespace", "<title>  Padded  </title>", "Padded"},
		{"missing", "<html><body>no title</body></html>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.html); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
