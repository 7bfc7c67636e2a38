package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mfenderov/newsbrief/pkg/models"
)

// maxPartitionSize bounds a partition query; a 24h rolling window per
// category stays far below this.
const maxPartitionSize = 1000

// ElasticConfig holds Elasticsearch backend configuration.
type ElasticConfig struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

// ElasticStore is the hosted Backend implementation on Elasticsearch.
type ElasticStore struct {
	es    *elasticsearch.Client
	index string
}

// NewElasticStore creates the Elasticsearch-backed store.
func NewElasticStore(config ElasticConfig) (*ElasticStore, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &ElasticStore{es: es, index: config.Index}, nil
}

// Ping checks if Elasticsearch is available.
func (s *ElasticStore) Ping(ctx context.Context) bool {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// indexMapping defines the ES index mapping for articles.
var indexMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"title": { "type": "text" },
			"summary": { "type": "text" },
			"source_url": { "type": "keyword" },
			"published_at": { "type": "date" },
			"image_url": { "type": "keyword" },
			"audio_ref": { "type": "keyword" },
			"category": { "type": "keyword" },
			"collected_at": { "type": "date" }
		}
	}
}`

// EnsureIndex creates the index with the article mapping if it is missing.
func (s *ElasticStore) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (s *ElasticStore) DeleteIndex(ctx context.Context) error {
	res, err := s.es.Indices.Delete([]string{s.index}, s.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// searchResponse represents the ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Article `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// LoadPartition returns all articles of one category, newest first.
func (s *ElasticStore) LoadPartition(ctx context.Context, category string) ([]models.Article, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"category": category},
		},
		"sort": []map[string]interface{}{
			{"collected_at": map[string]interface{}{"order": "desc"}},
		},
		"size": maxPartitionSize,
	}

	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("load partition %s: %w", category, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		// Index not created yet: empty partition.
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("load partition %s: %s", category, res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	articles := make([]models.Article, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		articles[i] = hit.Source
	}
	return articles, nil
}

// SavePartition replaces one category partition: the previous documents of
// the category are removed, then the merged set is indexed. Last writer wins
// at partition granularity; callers merge against the loaded state first.
func (s *ElasticStore) SavePartition(ctx context.Context, category string, articles []models.Article) error {
	if err := s.EnsureIndex(ctx); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`{"query":{"term":{"category":%q}}}`, category)
	res, err := s.es.DeleteByQuery(
		[]string{s.index},
		bytes.NewReader([]byte(deleteQuery)),
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("clear partition %s: %w", category, err)
	}
	res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("clear partition %s: %s", category, res.String())
	}

	for _, article := range articles {
		if err := s.indexArticle(ctx, article); err != nil {
			return err
		}
	}

	refresh, err := s.es.Indices.Refresh(
		s.es.Indices.Refresh.WithContext(ctx),
		s.es.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return err
	}
	refresh.Body.Close()
	return nil
}

// indexArticle indexes a single article document keyed by its stable ID.
func (s *ElasticStore) indexArticle(ctx context.Context, article models.Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("failed to marshal article: %w", err)
	}

	res, err := s.es.Index(
		s.index,
		bytes.NewReader(data),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(article.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index article: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing article (status %d): %s", res.StatusCode, res.String())
	}
	return nil
}

// getResponse represents the ES get response structure.
type getResponse struct {
	Found  bool           `json:"found"`
	Source models.Article `json:"_source"`
}

// LoadArticle retrieves one article by ID. Returns nil, nil when absent.
func (s *ElasticStore) LoadArticle(ctx context.Context, id string) (*models.Article, error) {
	res, err := s.es.Get(s.index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !gr.Found {
		return nil, nil
	}
	return &gr.Source, nil
}

// UpdateArtifactRef sets audio_ref on the stored article document.
func (s *ElasticStore) UpdateArtifactRef(ctx context.Context, id, ref string) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]string{"audio_ref": ref},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	res, err := s.es.Update(
		s.index,
		id,
		bytes.NewReader(body),
		s.es.Update.WithContext(ctx),
		s.es.Update.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("update artifact ref: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update artifact ref (status %d): %s", res.StatusCode, res.String())
	}
	return nil
}

var _ Backend = (*ElasticStore)(nil)
