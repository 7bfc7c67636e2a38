// Package collector orchestrates scheduled and manual news collection runs.
//
// A run fans out over the configured categories with bounded concurrency.
// Each category is an independent failure domain: it searches, enriches,
// merges against the persisted partition, saves, and only then swaps the
// in-memory index. The collector assumes it is the only writer for its
// backend; running two processes against the same store gives
// last-writer-wins per partition.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mfenderov/newsbrief/internal/dedup"
	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/mfenderov/newsbrief/pkg/models"
)

// ErrRunInProgress is returned by RunOnce when a collection run is already
// underway. Triggers that hit it should treat the in-flight run as theirs.
var ErrRunInProgress = errors.New("collection run already in progress")

// SearchClient finds raw article candidates for a category query.
type SearchClient interface {
	Search(ctx context.Context, query string, pageSize int) ([]models.RawCandidate, error)
}

// Enricher prepares a raw candidate for publication.
type Enricher interface {
	Enrich(ctx context.Context, candidate models.RawCandidate) (models.RawCandidate, error)
}

// Config holds collector configuration.
type Config struct {
	Categories      []string
	Interval        time.Duration // scheduled run period
	RetentionWindow time.Duration // articles older than this are evicted on merge
	Concurrency     int           // max categories collected at once
	PageSize        int           // candidates requested per category
}

// Collector runs the collection pipeline on a schedule and on demand.
type Collector struct {
	config   Config
	search   SearchClient
	enricher Enricher
	backend  store.Backend
	index    *store.Index

	runMu sync.Mutex // held for the duration of a run
	cron  *cron.Cron
}

// New creates a new Collector.
func New(config Config, search SearchClient, enricher Enricher, backend store.Backend, index *store.Index) (*Collector, error) {
	if len(config.Categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}
	if search == nil || enricher == nil || backend == nil || index == nil {
		return nil, fmt.Errorf("search, enricher, backend and index are required")
	}
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if config.RetentionWindow == 0 {
		config.RetentionWindow = 24 * time.Hour
	}
	if config.Concurrency == 0 {
		config.Concurrency = 3
	}
	if config.PageSize == 0 {
		config.PageSize = 10
	}

	return &Collector{
		config:   config,
		search:   search,
		enricher: enricher,
		backend:  backend,
		index:    index,
	}, nil
}

// CategoryResult describes the outcome of one category within a run.
type CategoryResult struct {
	Category       string
	NewCount       int
	DuplicateCount int
	EvictedCount   int
	Total          int    // articles in the partition after the merge
	Stage          string // stage reached when Err is set: fetch, enrich, load, persist
	Err            error
}

// RunSummary describes a completed collection run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []CategoryResult
}

// Failed reports whether any category in the run ended in an error.
func (s *RunSummary) Failed() bool {
	for _, r := range s.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// RunOnce performs a single collection run across all configured categories.
// If a run is already in progress it returns ErrRunInProgress immediately.
func (c *Collector) RunOnce(ctx context.Context) (*RunSummary, error) {
	if !c.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer c.runMu.Unlock()

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]CategoryResult, len(c.config.Categories)),
	}

	slog.Info("collection run started", "run_id", summary.RunID, "categories", len(c.config.Categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for i, category := range c.config.Categories {
		g.Go(func() error {
			summary.Results[i] = c.collectCategory(gctx, category)
			return nil
		})
	}
	g.Wait()

	summary.Duration = time.Since(summary.StartedAt)
	for _, r := range summary.Results {
		if r.Err != nil {
			slog.Warn("category collection failed", "run_id", summary.RunID,
				"category", r.Category, "stage", r.Stage, "error", r.Err)
		} else {
			slog.Info("category collected", "run_id", summary.RunID, "category", r.Category,
				"new", r.NewCount, "duplicate", r.DuplicateCount, "evicted", r.EvictedCount, "total", r.Total)
		}
	}
	slog.Info("collection run finished", "run_id", summary.RunID,
		"duration", summary.Duration, "failed", summary.Failed())

	return summary, nil
}

// collectCategory runs the fetch-enrich-merge-persist pipeline for one
// category. On any error the in-memory index keeps serving the previous
// snapshot for that category.
func (c *Collector) collectCategory(ctx context.Context, category string) CategoryResult {
	result := CategoryResult{Category: category}

	candidates, err := c.search.Search(ctx, category, c.config.PageSize)
	if err != nil {
		result.Stage = "fetch"
		result.Err = fmt.Errorf("search failed: %w", err)
		return result
	}

	enriched := make([]models.RawCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		e, err := c.enricher.Enrich(ctx, candidate)
		if err != nil {
			slog.Debug("dropping candidate", "category", category, "url", candidate.URL, "error", err)
			continue
		}
		enriched = append(enriched, e)
	}
	if len(candidates) > 0 && len(enriched) == 0 {
		result.Stage = "enrich"
		result.Err = fmt.Errorf("all %d candidates failed enrichment", len(candidates))
		return result
	}

	existing, err := c.backend.LoadPartition(ctx, category)
	if err != nil {
		result.Stage = "load"
		result.Err = fmt.Errorf("failed to load partition: %w", err)
		return result
	}

	merged := dedup.Merge(existing, enriched, category, c.config.RetentionWindow, time.Now())
	result.NewCount = merged.NewCount
	result.DuplicateCount = merged.DuplicateCount
	result.EvictedCount = merged.EvictedCount
	result.Total = len(merged.Merged)

	if err := c.backend.SavePartition(ctx, category, merged.Merged); err != nil {
		result.Stage = "persist"
		result.Err = fmt.Errorf("failed to save partition: %w", err)
		return result
	}

	c.index.Swap(category, merged.Merged)
	return result
}

// WarmLoad populates the in-memory index from the backend without running a
// collection. Missing partitions load as empty.
func (c *Collector) WarmLoad(ctx context.Context) error {
	for _, category := range c.config.Categories {
		articles, err := c.backend.LoadPartition(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to warm load %s: %w", category, err)
		}
		c.index.Swap(category, articles)
		slog.Debug("partition warm loaded", "category", category, "articles", len(articles))
	}
	return nil
}

// Start warm loads the index, runs an immediate collection when the store is
// empty, and schedules periodic runs. It returns after scheduling; Stop
// shuts the schedule down.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.WarmLoad(ctx); err != nil {
		return err
	}

	if c.index.Len() == 0 {
		slog.Info("store is empty, running initial collection")
		if _, err := c.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
			slog.Warn("initial collection failed", "error", err)
		}
	}

	c.cron = cron.New()
	_, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.config.Interval), func() {
		if _, err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				slog.Info("skipping scheduled collection, previous run still in progress")
				return
			}
			slog.Error("scheduled collection failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule collection: %w", err)
	}
	c.cron.Start()

	slog.Info("collection scheduled", "interval", c.config.Interval)
	return nil
}

// Stop halts scheduled runs and waits for an in-flight run to finish.
func (c *Collector) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
	c.runMu.Lock()
	c.runMu.Unlock()
}
