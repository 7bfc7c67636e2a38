// Package artifact guarantees that expensive derived artifacts (narrated
// audio) are generated at most once per article within the process. Concurrent
// requests for the same artifact coalesce onto one generator invocation; the
// durable record of completion lives on the article itself.
package artifact

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// KindAudio is the narrated-audio artifact kind.
const KindAudio = "audio"

// Backend is the slice of the storage contract the artifact cache needs.
type Backend interface {
	LoadArticle(ctx context.Context, id string) (*models.Article, error)
	UpdateArtifactRef(ctx context.Context, id, ref string) error
}

// GeneratorFunc produces the artifact for an article and returns its
// storage reference.
type GeneratorFunc func(ctx context.Context, article models.Article) (string, error)

// Cache coordinates artifact generation. Generation failures are returned to
// every waiting caller but never recorded, so a later request retries.
type Cache struct {
	backend Backend
	group   singleflight.Group
}

// New creates an artifact cache over the given backend.
func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// GetOrGenerate returns the artifact reference for (articleID, kind),
// invoking gen at most once across all concurrent callers. The durable state
// is consulted first, so an artifact generated before a restart is returned
// without invoking gen at all.
func (c *Cache) GetOrGenerate(ctx context.Context, articleID, kind string, gen GeneratorFunc) (string, error) {
	key := articleID + "|" + kind

	ref, err, _ := c.group.Do(key, func() (any, error) {
		article, err := c.backend.LoadArticle(ctx, articleID)
		if err != nil {
			return "", fmt.Errorf("load article %s: %w", articleID, err)
		}
		if article == nil {
			return "", fmt.Errorf("article %s not found", articleID)
		}

		if existing := durableRef(article, kind); existing != "" {
			return existing, nil
		}

		generated, err := gen(ctx, *article)
		if err != nil {
			return "", fmt.Errorf("generate %s for %s: %w", kind, articleID, err)
		}

		if err := c.backend.UpdateArtifactRef(ctx, articleID, generated); err != nil {
			return "", fmt.Errorf("persist %s ref for %s: %w", kind, articleID, err)
		}
		return generated, nil
	})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

// durableRef returns the already-persisted reference for the kind, if any.
func durableRef(article *models.Article, kind string) string {
	if kind == KindAudio {
		return article.AudioRef
	}
	return ""
}
