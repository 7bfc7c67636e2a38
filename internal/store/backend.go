// Package store defines the persistence contract for category partitions,
// its file and Elasticsearch implementations, the MinIO object store for
// audio artifacts, and the in-memory read index.
package store

import (
	"context"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// Backend is the durable persistence contract. SavePartition is
// last-writer-wins at partition granularity; callers are responsible for
// merging against the latest loaded state before saving. LoadPartition and
// LoadArticle return empty results, not errors, for absent data.
type Backend interface {
	LoadPartition(ctx context.Context, category string) ([]models.Article, error)
	SavePartition(ctx context.Context, category string, articles []models.Article) error
	LoadArticle(ctx context.Context, id string) (*models.Article, error)
	UpdateArtifactRef(ctx context.Context, id, ref string) error
}
