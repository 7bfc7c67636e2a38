// Package mcp exposes the news service over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mfenderov/newsbrief/internal/collector"
	"github.com/mfenderov/newsbrief/internal/news"
)

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server wraps the MCP server over the news service.
type Server struct {
	mcpServer *server.MCPServer
	service   *news.Service
}

// NewServer creates a new MCP server with news tools.
func NewServer(config Config, service *news.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("news service is required")
	}
	if config.Name == "" {
		config.Name = "newsbrief"
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		service:   service,
	}

	getNewsTool := mcp.NewTool("get_news",
		mcp.WithDescription("Get a page of collected news articles for a category, newest first."),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("News category to read"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, starting at 1 (default: 1)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description(fmt.Sprintf("Articles per page (default: %d, max: %d)", news.DefaultPageSize, news.MaxPageSize)),
		),
	)
	mcpServer.AddTool(getNewsTool, s.getNewsHandler)

	generateAudioTool := mcp.NewTool("generate_audio",
		mcp.WithDescription("Generate (or return the existing) narrated audio for an article. Returns the audio object key."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Article ID"),
		),
	)
	mcpServer.AddTool(generateAudioTool, s.generateAudioHandler)

	collectNowTool := mcp.NewTool("collect_now",
		mcp.WithDescription("Trigger a news collection run immediately. Returns the run summary."),
	)
	mcpServer.AddTool(collectNowTool, s.collectNowHandler)

	return s, nil
}

// getNewsHandler handles the get_news tool call.
func (s *Server) getNewsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category parameter is required"), nil
	}

	page := req.GetInt("page", 1)
	pageSize := req.GetInt("page_size", news.DefaultPageSize)

	result, err := s.service.GetPage(ctx, category, page, pageSize)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get news failed: %v", err)), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal page: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// generateAudioHandler handles the generate_audio tool call.
func (s *Server) generateAudioHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	key, err := s.service.GetOrGenerateAudio(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generate audio failed: %v", err)), nil
	}

	payload, err := json.Marshal(map[string]string{"audio_ref": key})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// collectNowHandler handles the collect_now tool call.
func (s *Server) collectNowHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.service.TriggerCollection(ctx)
	if err != nil {
		if errors.Is(err, collector.ErrRunInProgress) {
			return mcp.NewToolResultText(`{"status": "already running"}`), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("collection failed: %v", err)), nil
	}

	payload, err := json.Marshal(summaryView(summary))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// summaryView flattens a run summary for tool output; errors become strings.
func summaryView(summary *collector.RunSummary) map[string]any {
	results := make([]map[string]any, 0, len(summary.Results))
	for _, r := range summary.Results {
		view := map[string]any{
			"category":  r.Category,
			"new":       r.NewCount,
			"duplicate": r.DuplicateCount,
			"evicted":   r.EvictedCount,
			"total":     r.Total,
		}
		if r.Err != nil {
			view["stage"] = r.Stage
			view["error"] = r.Err.Error()
		}
		results = append(results, view)
	}
	return map[string]any{
		"run_id":      summary.RunID,
		"started_at":  summary.StartedAt,
		"duration_ms": summary.Duration.Milliseconds(),
		"failed":      summary.Failed(),
		"results":     results,
	}
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
