// Package dedup implements the merge engine that folds freshly fetched
// candidates into a retention-windowed category partition without duplication.
package dedup

import (
	"sort"
	"time"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// Result holds the outcome of one merge call.
type Result struct {
	Merged         []models.Article
	NewCount       int
	DuplicateCount int
	EvictedCount   int
}

// Merge produces a new partition from the existing articles and a batch of
// incoming candidates. Existing articles older than the retention window are
// evicted; candidates whose source URL is already present are counted as
// duplicates and dropped without touching the stored article. Duplicate URLs
// within the incoming batch itself are collapsed first-occurrence-wins, so one
// merge call can never emit two articles with the same derived ID. The merged
// slice is ordered by collection time, newest first.
func Merge(existing []models.Article, incoming []models.RawCandidate, category string, window time.Duration, now time.Time) Result {
	cutoff := now.Add(-window)

	valid := make([]models.Article, 0, len(existing))
	for _, article := range existing {
		if !article.CollectedAt.Before(cutoff) {
			valid = append(valid, article)
		}
	}

	result := Result{EvictedCount: len(existing) - len(valid)}

	seen := make(map[string]struct{}, len(valid)+len(incoming))
	for _, article := range valid {
		seen[article.SourceURL] = struct{}{}
	}

	fresh := make([]models.Article, 0, len(incoming))
	for _, candidate := range incoming {
		if candidate.URL == "" {
			continue
		}
		if _, exists := seen[candidate.URL]; exists {
			result.DuplicateCount++
			continue
		}
		seen[candidate.URL] = struct{}{}

		fresh = append(fresh, models.Article{
			ID:          models.GenerateArticleID(category, candidate.URL),
			Title:       candidate.Title,
			Summary:     candidate.Description,
			SourceURL:   candidate.URL,
			PublishedAt: candidate.PublishedAt,
			ImageURL:    candidate.ImageURL,
			Category:    category,
			CollectedAt: now,
		})
		result.NewCount++
	}

	merged := make([]models.Article, 0, len(fresh)+len(valid))
	merged = append(merged, fresh...)
	merged = append(merged, valid...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CollectedAt.After(merged[j].CollectedAt)
	})

	result.Merged = merged
	return result
}
