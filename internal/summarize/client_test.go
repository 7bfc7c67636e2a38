package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Model: "m"}); err == nil {
		t.Error("New() without base URL should fail")
	}
	if _, err := New(Config{BaseURL: "http://localhost"}); err == nil {
		t.Error("New() without model should fail")
	}
	if _, err := New(Config{BaseURL: "http://localhost", Model: "m"}); err != nil {
		t.Errorf("New() with valid config error = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "  A short summary.  "}}]}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	summary, err := client.Summarize(context.Background(), "Big News", "Something happened today.")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary != "A short summary." {
		t.Errorf("Summarize() = %q, want trimmed content", summary)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "Big News") {
		t.Errorf("prompt missing title, messages = %+v", gotReq.Messages)
	}
}

func TestSummarize_TruncatesBody(t *testing.T) {
	var gotLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotLen = len(req.Messages[0].Content)
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Model: "m"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	body := strings.Repeat("x", maxBodyForSummary*2)
	if _, err := client.Summarize(context.Background(), "t", body); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if gotLen > maxBodyForSummary+500 {
		t.Errorf("prompt length %d, body was not truncated", gotLen)
	}
}

func TestSummarize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Model: "m", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.Summarize(context.Background(), "t", "b"); err == nil {
		t.Error("Summarize() should fail on API error status")
	}
}

func TestSummarize_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, Model: "m"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := client.Summarize(context.Background(), "t", "b"); err == nil {
		t.Error("Summarize() should fail when no choices are returned")
	}
}
