package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Article is a deduplicated news record with a stable derived identity.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	SourceURL   string    `json:"source_url"` // natural key within a category
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioRef    string    `json:"audio_ref,omitempty"` // object key of the narrated audio, set once generated
	Category    string    `json:"category"`
	CollectedAt time.Time `json:"collected_at"` // set at first ingestion, never mutated
}

// RawCandidate is an article as returned by the search provider,
// before identity assignment and merging.
type RawCandidate struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// PageInfo describes one page of a paginated result set.
type PageInfo struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"page_size"`
	TotalResults    int  `json:"total_results"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

// Page is a paginated slice of one category partition.
type Page struct {
	Articles []Article `json:"articles"`
	PageInfo PageInfo  `json:"page_info"`
}

// idHashLength is the number of hex characters kept from the hash.
// 64 bits of SHA-256 makes accidental collision astronomically unlikely.
const idHashLength = 16

// GenerateArticleID creates a deterministic ID from (category, sourceURL).
// The ID is a category-derived tag followed by the first 16 hex chars of
// SHA-256 over "category|sourceURL". Re-fetching the same source URL always
// yields the same ID. Callers must reject an empty sourceURL beforehand.
func GenerateArticleID(category, sourceURL string) string {
	hash := sha256.Sum256([]byte(category + "|" + sourceURL))
	return categoryTag(category) + "-" + hex.EncodeToString(hash[:])[:idHashLength]
}

// categoryTag derives a short human-readable prefix from the category name.
func categoryTag(category string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(category) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 8 {
			break
		}
	}
	if b.Len() == 0 {
		return "news"
	}
	return b.String()
}
