package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mfenderov/newsbrief/internal/artifact"
	"github.com/mfenderov/newsbrief/internal/collector"
	"github.com/mfenderov/newsbrief/internal/news"
	"github.com/mfenderov/newsbrief/internal/reqcache"
	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/mfenderov/newsbrief/pkg/models"
)

type fakeBackend struct {
	articles map[string]*models.Article
	refs     map[string]string
}

func (b *fakeBackend) LoadArticle(ctx context.Context, id string) (*models.Article, error) {
	a, ok := b.articles[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	if ref, ok := b.refs[id]; ok {
		copied.AudioRef = ref
	}
	return &copied, nil
}

func (b *fakeBackend) UpdateArtifactRef(ctx context.Context, id, ref string) error {
	b.refs[id] = ref
	return nil
}

type fakeSynth struct{}

func (fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("audio"), nil
}

type fakeAudioStore struct{}

func (fakeAudioStore) PutAudio(ctx context.Context, articleID string, audio []byte) (string, error) {
	return "audio/" + articleID + ".mp3", nil
}

type fakeTrigger struct {
	summary *collector.RunSummary
	err     error
}

func (f *fakeTrigger) RunOnce(ctx context.Context) (*collector.RunSummary, error) {
	return f.summary, f.err
}

func testServer(t *testing.T, trigger news.Trigger) (*Server, *store.Index, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{articles: make(map[string]*models.Article), refs: make(map[string]string)}
	index := store.NewIndex()
	service, err := news.New(news.Config{Categories: []string{"technology"}},
		index, reqcache.New(reqcache.DefaultTTL), artifact.New(backend),
		fakeSynth{}, fakeAudioStore{}, trigger)
	if err != nil {
		t.Fatalf("news.New() error = %v", err)
	}

	s, err := NewServer(Config{Name: "newsbrief", Version: "test"}, service)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s, index, backend
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestServer_Creation(t *testing.T) {
	s, _, _ := testServer(t, &fakeTrigger{})
	if s.mcpServer == nil {
		t.Error("mcpServer should not be nil")
	}

	if _, err := NewServer(Config{}, nil); err == nil {
		t.Error("NewServer() without a service should fail")
	}
}

func TestGetNewsTool(t *testing.T) {
	s, index, _ := testServer(t, &fakeTrigger{})
	index.Swap("technology", []models.Article{
		{ID: "tech-1", Title: "One", Category: "technology", SourceURL: "https://t/1", CollectedAt: time.Now()},
	})

	result, err := s.getNewsHandler(context.Background(), toolRequest(map[string]any{"category": "technology"}))
	if err != nil {
		t.Fatalf("getNewsHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}

	var page models.Page
	if err := json.Unmarshal([]byte(resultText(t, result)), &page); err != nil {
		t.Fatalf("failed to unmarshal page: %v", err)
	}
	if len(page.Articles) != 1 || page.Articles[0].ID != "tech-1" {
		t.Errorf("page = %+v", page)
	}
}

func TestGetNewsTool_Errors(t *testing.T) {
	s, _, _ := testServer(t, &fakeTrigger{})

	result, err := s.getNewsHandler(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("getNewsHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("missing category should produce a tool error")
	}

	result, err = s.getNewsHandler(context.Background(), toolRequest(map[string]any{"category": "gossip"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("unknown category should produce a tool error")
	}
}

func TestGenerateAudioTool(t *testing.T) {
	s, _, backend := testServer(t, &fakeTrigger{})
	backend.articles["tech-1"] = &models.Article{ID: "tech-1", Title: "One", Summary: "s"}

	result, err := s.generateAudioHandler(context.Background(), toolRequest(map[string]any{"id": "tech-1"}))
	if err != nil {
		t.Fatalf("generateAudioHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatal(err)
	}
	if out["audio_ref"] != "audio/tech-1.mp3" {
		t.Errorf("audio_ref = %q", out["audio_ref"])
	}
}

func TestCollectNowTool(t *testing.T) {
	trigger := &fakeTrigger{summary: &collector.RunSummary{
		RunID: "run-1",
		Results: []collector.CategoryResult{
			{Category: "technology", NewCount: 3, Total: 3},
		},
	}}
	s, _, _ := testServer(t, trigger)

	result, err := s.collectNowHandler(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("collectNowHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "run-1") {
		t.Errorf("summary missing run ID: %s", resultText(t, result))
	}
}

func TestCollectNowTool_AlreadyRunning(t *testing.T) {
	s, _, _ := testServer(t, &fakeTrigger{err: collector.ErrRunInProgress})

	result, err := s.collectNowHandler(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatalf("collectNowHandler() error = %v", err)
	}
	if result.IsError {
		t.Error("in-progress run should not be a tool error")
	}
	if !strings.Contains(resultText(t, result), "already running") {
		t.Errorf("unexpected result: %s", resultText(t, result))
	}
}
