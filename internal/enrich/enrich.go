// Package enrich turns raw search candidates into publishable articles by
// fetching the source page, extracting its readable content, and summarizing
// it. Fetch and extraction failures degrade to the provider description;
// a failed summary drops the candidate.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/html"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// Summarizer produces a short summary from an article title and body.
type Summarizer interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}

// Config holds enricher configuration.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Enricher fetches and summarizes article pages.
type Enricher struct {
	config     Config
	summarizer Summarizer
}

// New creates a new Enricher.
func New(config Config, summarizer Summarizer) (*Enricher, error) {
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "NewsBrief/1.0"
	}
	return &Enricher{config: config, summarizer: summarizer}, nil
}

// maxExtractedBody caps the markdown handed to the summarizer.
const maxExtractedBody = 12000

// Enrich returns a copy of the candidate with its description replaced by a
// generated summary and a title filled in when the provider omitted one.
func (e *Enricher) Enrich(ctx context.Context, candidate models.RawCandidate) (models.RawCandidate, error) {
	body := candidate.Description
	title := candidate.Title

	if page, err := e.fetch(ctx, candidate.URL); err != nil {
		slog.Debug("page fetch failed, using provider description", "url", candidate.URL, "error", err)
	} else {
		extractedTitle, extractedBody := e.extract(candidate.URL, page)
		if extractedBody != "" {
			body = extractedBody
		}
		if title == "" {
			title = extractedTitle
		}
	}

	if strings.TrimSpace(body) == "" {
		body = title
	}

	summary, err := e.summarizer.Summarize(ctx, title, body)
	if err != nil {
		return models.RawCandidate{}, fmt.Errorf("failed to summarize %s: %w", candidate.URL, err)
	}

	enriched := candidate
	enriched.Title = title
	enriched.Description = summary
	return enriched, nil
}

// fetch retrieves the raw page body. A fresh collector per fetch keeps
// visits independent, so the same host can be hit across runs.
func (e *Enricher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	c := colly.NewCollector(
		colly.UserAgent(e.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(e.config.Timeout)

	var page []byte
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			fetchErr = ctx.Err()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= 400 {
			fetchErr = fmt.Errorf("status %d", r.StatusCode)
			return
		}
		page = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("empty page body")
	}
	return page, nil
}

// extract pulls the readable title and body out of a fetched page. The body
// comes back as markdown, truncated for the summarizer. Failures return
// empty strings so the caller can fall back.
func (e *Enricher) extract(pageURL string, page []byte) (title, body string) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", ""
	}

	article, err := readability.FromReader(strings.NewReader(string(page)), parsedURL)
	if err != nil {
		slog.Debug("readability extraction failed", "url", pageURL, "error", err)
		return extractTitle(string(page)), ""
	}

	title = strings.TrimSpace(article.Title)
	if title == "" {
		title = extractTitle(string(page))
	}

	markdown, err := htmltomarkdown.ConvertString(article.Content)
	if err != nil {
		body = strings.TrimSpace(article.TextContent)
	} else {
		body = strings.TrimSpace(markdown)
	}
	if len(body) > maxExtractedBody {
		body = body[:maxExtractedBody]
	}
	return title, body
}

// extractTitle extracts the <title> content from HTML.
func extractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
		}
	}
	findTitle(doc)

	return strings.TrimSpace(title)
}
