// Package summarize wraps an OpenAI-compatible chat completions API used to
// produce short article summaries during enrichment.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config holds summarizer client configuration.
type Config struct {
	BaseURL string // e.g. "http://localhost:12434/v1"
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client wraps the chat completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// New creates a new summarizer client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		apiKey:     config.APIKey,
	}, nil
}

// chatRequest is the request payload for the chat completions API.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// maxBodyForSummary limits the article body sent to the model; a few
// thousand words is plenty for a two-sentence summary.
const maxBodyForSummary = 12000

// maxSummaryTokens bounds the response length.
const maxSummaryTokens = 200

// Summarize produces a short plain-text summary of an article body. The body
// may be the extracted page content or, when extraction failed upstream, the
// provider's own description.
func (c *Client) Summarize(ctx context.Context, title, body string) (string, error) {
	if len(body) > maxBodyForSummary {
		body = body[:maxBodyForSummary]
	}

	prompt := fmt.Sprintf(`Summarize the following news article in two to three plain sentences.
State only what the article reports. No headers, no bullet points, no preamble.

Title: %s

Article:
%s`, title, body)

	slog.Debug("summarizing article", "title", title, "body_len", len(body))
	return c.complete(ctx, prompt)
}

// complete sends a single-message chat request and returns the reply text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxSummaryTokens,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response returned")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
