package store

import (
	"sort"
	"sync"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// Index is the in-memory read view of the latest merged partitions. Writers
// replace a whole partition in one Swap, so a reader either sees the previous
// set or the new one, never a partially merged mixture. Slices handed to Swap
// are treated as immutable from then on.
type Index struct {
	mu         sync.RWMutex
	partitions map[string][]models.Article
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{partitions: make(map[string][]models.Article)}
}

// Get returns the current snapshot for a category. The returned slice must
// not be modified.
func (i *Index) Get(category string) []models.Article {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.partitions[category]
}

// Swap atomically replaces the partition snapshot for a category.
func (i *Index) Swap(category string, articles []models.Article) {
	i.mu.Lock()
	i.partitions[category] = articles
	i.mu.Unlock()
}

// Categories returns the categories currently held, sorted.
func (i *Index) Categories() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	categories := make([]string, 0, len(i.partitions))
	for category := range i.partitions {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Len returns the total number of articles across all partitions.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	total := 0
	for _, articles := range i.partitions {
		total += len(articles)
	}
	return total
}
