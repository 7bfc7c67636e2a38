package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/newsbrief/internal/store"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a single collection pass",
	Long: `Fetch, enrich, merge, and persist articles for every configured category,
then exit.

Examples:
  # Collect with the configured categories
  newsbrief collect

  # Collect against a local file store
  NEWSBRIEF_STORAGE_DIR=./data newsbrief collect`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("collect command starting", "categories", cfg.Collector.Categories)

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	if es, ok := backend.(*store.ElasticStore); ok {
		if err := es.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to ensure index: %w", err)
		}
	}

	c, err := newCollector(cfg, backend, store.NewIndex())
	if err != nil {
		return err
	}

	summary, err := c.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			fmt.Printf("%-12s error at %s: %v\n", r.Category, r.Stage, r.Err)
			continue
		}
		fmt.Printf("%-12s new: %d, duplicate: %d, evicted: %d, total: %d\n",
			r.Category, r.NewCount, r.DuplicateCount, r.EvictedCount, r.Total)
	}
	fmt.Printf("\nRun %s finished in %v\n", summary.RunID, summary.Duration)

	if summary.Failed() {
		return fmt.Errorf("one or more categories failed")
	}
	return nil
}
