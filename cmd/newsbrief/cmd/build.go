package cmd

import (
	"fmt"

	"github.com/mfenderov/newsbrief/internal/collector"
	"github.com/mfenderov/newsbrief/internal/config"
	"github.com/mfenderov/newsbrief/internal/enrich"
	"github.com/mfenderov/newsbrief/internal/search"
	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/mfenderov/newsbrief/internal/summarize"
)

// newBackend builds the article backend selected by storage.backend.
func newBackend(cfg config.Config) (store.Backend, error) {
	switch cfg.Storage.Backend {
	case "file", "":
		return store.NewFileStore(cfg.Storage.Dir)
	case "elastic":
		return store.NewElasticStore(store.ElasticConfig{
			Addresses: cfg.Elasticsearch.Addresses,
			Index:     cfg.Elasticsearch.Index,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file or elastic)", cfg.Storage.Backend)
	}
}

// newCollector builds the collection pipeline: search, summarizer, enricher,
// and the collector itself over the given backend and index.
func newCollector(cfg config.Config, backend store.Backend, index *store.Index) (*collector.Collector, error) {
	searchClient, err := search.New(search.Config{
		Endpoint: cfg.Search.Endpoint,
		APIKey:   cfg.Search.APIKey,
		Timeout:  cfg.Search.Timeout,
		Language: cfg.Search.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	summarizer, err := summarize.New(summarize.Config{
		BaseURL: cfg.Summarizer.BaseURL,
		Model:   cfg.Summarizer.Model,
		APIKey:  cfg.Summarizer.APIKey,
		Timeout: cfg.Summarizer.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	enricher, err := enrich.New(enrich.Config{
		UserAgent: cfg.Enrich.UserAgent,
		Timeout:   cfg.Enrich.Timeout,
	}, summarizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create enricher: %w", err)
	}

	c, err := collector.New(collector.Config{
		Categories:      cfg.Collector.Categories,
		Interval:        cfg.Collector.Interval,
		RetentionWindow: cfg.Collector.RetentionWindow,
		Concurrency:     cfg.Collector.Concurrency,
		PageSize:        cfg.Collector.PageSize,
	}, searchClient, enricher, backend, index)
	if err != nil {
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}
	return c, nil
}
