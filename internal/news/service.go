// Package news is the exposed facade over the collected article set: paged
// category reads, on-demand audio narration, and manual collection triggers.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mfenderov/newsbrief/internal/artifact"
	"github.com/mfenderov/newsbrief/internal/collector"
	"github.com/mfenderov/newsbrief/internal/reqcache"
	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/mfenderov/newsbrief/pkg/models"
)

// Synthesizer renders text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists generated audio and returns its storage key.
type AudioStore interface {
	PutAudio(ctx context.Context, articleID string, audio []byte) (string, error)
}

// Trigger starts a collection run on demand.
type Trigger interface {
	RunOnce(ctx context.Context) (*collector.RunSummary, error)
}

const (
	// DefaultPageSize applies when the caller passes pageSize <= 0.
	DefaultPageSize = 10
	// MaxPageSize caps a single page.
	MaxPageSize = 50
)

// Config holds service configuration.
type Config struct {
	Categories []string // the categories GetPage accepts
}

// Service answers read requests from the in-memory index and coordinates
// audio generation and manual collection.
type Service struct {
	config      Config
	index       *store.Index
	cache       *reqcache.Cache
	artifacts   *artifact.Cache
	synthesizer Synthesizer
	audio       AudioStore
	trigger     Trigger
	categories  map[string]bool
}

// New creates the news service.
func New(config Config, index *store.Index, cache *reqcache.Cache, artifacts *artifact.Cache, synthesizer Synthesizer, audio AudioStore, trigger Trigger) (*Service, error) {
	if len(config.Categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}
	if index == nil || cache == nil || artifacts == nil {
		return nil, fmt.Errorf("index, cache and artifacts are required")
	}

	categories := make(map[string]bool, len(config.Categories))
	for _, c := range config.Categories {
		categories[strings.ToLower(c)] = true
	}

	return &Service{
		config:      config,
		index:       index,
		cache:       cache,
		artifacts:   artifacts,
		synthesizer: synthesizer,
		audio:       audio,
		trigger:     trigger,
		categories:  categories,
	}, nil
}

// GetPage returns one page of a category partition, newest first. Responses
// are served from the request cache when a fresh identical read exists.
func (s *Service) GetPage(ctx context.Context, category string, page, pageSize int) (*models.Page, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if !s.categories[category] {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := map[string]string{
		"category":  category,
		"page":      strconv.Itoa(page),
		"page_size": strconv.Itoa(pageSize),
	}
	if cached, ok := s.cache.Get("news.page", params, reqcache.PublicContext); ok {
		if p, ok := cached.(*models.Page); ok {
			slog.Debug("page served from cache", "category", category, "page", page)
			return p, nil
		}
	}

	articles := s.index.Get(category)
	result := paginate(articles, page, pageSize)

	s.cache.Set("news.page", params, reqcache.PublicContext, result)
	return result, nil
}

// paginate slices one page out of the partition snapshot.
func paginate(articles []models.Article, page, pageSize int) *models.Page {
	total := len(articles)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &models.Page{
		Articles: articles[start:end],
		PageInfo: models.PageInfo{
			Page:            page,
			PageSize:        pageSize,
			TotalResults:    total,
			TotalPages:      totalPages,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1 && total > 0,
		},
	}
}

// GetOrGenerateAudio returns the storage key of the narrated audio for an
// article, generating and persisting it on first request. Concurrent
// requests for the same article share one synthesis.
func (s *Service) GetOrGenerateAudio(ctx context.Context, articleID string) (string, error) {
	articleID = strings.TrimSpace(articleID)
	if articleID == "" {
		return "", fmt.Errorf("article ID is required")
	}
	if s.synthesizer == nil || s.audio == nil {
		return "", fmt.Errorf("audio generation is not configured")
	}

	return s.artifacts.GetOrGenerate(ctx, articleID, artifact.KindAudio, func(ctx context.Context, article models.Article) (string, error) {
		text := article.Summary
		if strings.TrimSpace(text) == "" {
			text = article.Title
		}

		audio, err := s.synthesizer.Synthesize(ctx, text)
		if err != nil {
			return "", fmt.Errorf("synthesis failed: %w", err)
		}

		key, err := s.audio.PutAudio(ctx, article.ID, audio)
		if err != nil {
			return "", fmt.Errorf("failed to store audio: %w", err)
		}

		slog.Info("audio generated", "article_id", article.ID, "key", key, "bytes", len(audio))
		return key, nil
	})
}

// TriggerCollection starts a collection run now. When a run is already in
// progress the collector's sentinel error is passed through.
func (s *Service) TriggerCollection(ctx context.Context) (*collector.RunSummary, error) {
	if s.trigger == nil {
		return nil, fmt.Errorf("collection trigger is not configured")
	}
	return s.trigger.RunOnce(ctx)
}
