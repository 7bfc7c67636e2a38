package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/newsbrief/internal/artifact"
	"github.com/mfenderov/newsbrief/internal/mcp"
	"github.com/mfenderov/newsbrief/internal/news"
	"github.com/mfenderov/newsbrief/internal/reqcache"
	"github.com/mfenderov/newsbrief/internal/speech"
	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and the MCP server",
	Long: `Start the collection scheduler and the MCP server.

The server communicates via stdio and provides three tools:
  - get_news: Read a page of collected articles for a category
  - generate_audio: Generate narrated audio for an article
  - collect_now: Trigger a collection run immediately

Example:
  newsbrief serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	if es, ok := backend.(*store.ElasticStore); ok {
		if err := es.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to ensure index: %w", err)
		}
	}

	objects, err := store.NewObjectStore(store.ObjectConfig{
		Endpoint:        cfg.Objects.Endpoint,
		Bucket:          cfg.Objects.Bucket,
		AccessKeyID:     cfg.Objects.AccessKeyID,
		SecretAccessKey: cfg.Objects.SecretAccessKey,
		UseSSL:          cfg.Objects.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	synthesizer, err := speech.New(speech.Config{
		BaseURL: cfg.Speech.BaseURL,
		Model:   cfg.Speech.Model,
		Voice:   cfg.Speech.Voice,
		APIKey:  cfg.Speech.APIKey,
		Timeout: cfg.Speech.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	index := store.NewIndex()
	c, err := newCollector(cfg, backend, index)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start collector: %w", err)
	}
	defer c.Stop()

	cache := reqcache.New(cfg.Cache.TTL)
	cache.StartSweeper(ctx, 0)

	service, err := news.New(news.Config{
		Categories: cfg.Collector.Categories,
	}, index, cache, artifact.New(backend), synthesizer, objects, c)
	if err != nil {
		return fmt.Errorf("failed to create news service: %w", err)
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, service)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
