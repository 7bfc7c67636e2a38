package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// FileStore persists each category partition as one JSON file under a data
// directory. Writes go through a temp file and rename so a crashed write
// never leaves a half-written partition behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// LoadPartition reads one category partition. A missing file is an empty
// partition, not an error.
func (s *FileStore) LoadPartition(ctx context.Context, category string) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.partitionPath(category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read partition %s: %w", category, err)
	}

	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decode partition %s: %w", category, err)
	}
	return articles, nil
}

// SavePartition replaces one category partition. Last writer wins.
func (s *FileStore) SavePartition(ctx context.Context, category string, articles []models.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if articles == nil {
		articles = []models.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode partition %s: %w", category, err)
	}

	target := s.partitionPath(category)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write partition %s: %w", category, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace partition %s: %w", category, err)
	}
	return nil
}

// LoadArticle scans the partitions for an article by ID. Returns nil, nil
// when absent.
func (s *FileStore) LoadArticle(ctx context.Context, id string) (*models.Article, error) {
	categories, err := s.listCategories()
	if err != nil {
		return nil, err
	}

	for _, category := range categories {
		articles, err := s.LoadPartition(ctx, category)
		if err != nil {
			return nil, err
		}
		for i := range articles {
			if articles[i].ID == id {
				article := articles[i]
				return &article, nil
			}
		}
	}
	return nil, nil
}

// UpdateArtifactRef sets the audio reference on a stored article, leaving
// every other field, collectedAt included, untouched.
func (s *FileStore) UpdateArtifactRef(ctx context.Context, id, ref string) error {
	categories, err := s.listCategories()
	if err != nil {
		return err
	}

	for _, category := range categories {
		articles, err := s.LoadPartition(ctx, category)
		if err != nil {
			return err
		}
		for i := range articles {
			if articles[i].ID == id {
				articles[i].AudioRef = ref
				return s.SavePartition(ctx, category, articles)
			}
		}
	}
	return fmt.Errorf("article %s not found", id)
}

func (s *FileStore) partitionPath(category string) string {
	return filepath.Join(s.dir, "news_"+sanitizeCategory(category)+".json")
}

func (s *FileStore) listCategories() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "news_*.json"))
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	categories := make([]string, 0, len(matches))
	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), ".json")
		categories = append(categories, strings.TrimPrefix(name, "news_"))
	}
	return categories, nil
}

// sanitizeCategory maps a category name onto a safe filename fragment.
func sanitizeCategory(category string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(category) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

var _ Backend = (*FileStore)(nil)
