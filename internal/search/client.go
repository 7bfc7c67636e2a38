// Package search wraps the external article search provider.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// Config holds search provider configuration.
type Config struct {
	Endpoint string // provider base URL, e.g. "https://gnews.io/api/v4"
	APIKey   string
	Timeout  time.Duration
	Language string
}

// Client queries the search provider for raw article candidates.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	language   string
}

// New creates a search client. Transient provider errors are retried by the
// underlying client; the request deadline bounds the whole exchange.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	r := retryablehttp.NewClient()
	r.RetryMax = 2
	r.HTTPClient.Timeout = config.Timeout
	r.Logger = nil

	return &Client{
		httpClient: r.StandardClient(),
		endpoint:   config.Endpoint,
		apiKey:     config.APIKey,
		language:   config.Language,
	}, nil
}

// searchResponse is the provider's search payload.
type searchResponse struct {
	TotalArticles int                   `json:"totalArticles"`
	Articles      []models.RawCandidate `json:"articles"`
	Errors        []string              `json:"errors,omitempty"`
}

// Search returns up to pageSize raw candidates for the query.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]models.RawCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("max", strconv.Itoa(pageSize))
	if c.language != "" {
		params.Set("lang", c.language)
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(sr.Errors) > 0 {
		return nil, fmt.Errorf("provider error: %s", sr.Errors[0])
	}

	return sr.Articles, nil
}
