// Package elastic adapts Elasticsearch as the document store.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"newsdex/internal/config"
	"newsdex/internal/domain"
	"newsdex/internal/ports"
)

// indexMapping pins the fields the pipelines query on; everything else is
// left to dynamic mapping, as in the original index bootstrap.
const indexMapping = `{
  "mappings": {
    "properties": {
      "title": {"type": "text"},
      "published_at": {"type": "date"},
      "popularity": {"type": "float"}
    }
  }
}`

// Store persists articles into an Elasticsearch index keyed by their
// content-derived document IDs.
type Store struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

var _ ports.DocumentStore = (*Store)(nil)

// New builds a store from configuration.
func New(cfg config.ElasticConfig, logger *slog.Logger) (*Store, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Address},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{es: es, index: cfg.Index, logger: logger}, nil
}

// EnsureIndex creates the article index on first use.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("check index %s: %s", s.index, res.Status())
	}

	s.logger.Info("creating index", "index", s.index)
	createRes, err := s.es.Indices.Create(
		s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("create index %s: %s", s.index, createRes.Status())
	}
	return nil
}

type docSource struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Source      string  `json:"source,omitempty"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	Language    string  `json:"language,omitempty"`
	Country     string  `json:"country,omitempty"`
	PublishedAt string  `json:"published_at"`
	Popularity  float64 `json:"popularity"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkUpsert writes one page of documents with a single _bulk call. Each
// action uses op type "index" so an existing document with the same ID is
// overwritten, which is what makes re-runs safe.
func (s *Store) BulkUpsert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var body bytes.Buffer
	for _, doc := range docs {
		meta, err := json.Marshal(map[string]map[string]string{
			"index": {"_index": s.index, "_id": doc.ID},
		})
		if err != nil {
			return fmt.Errorf("marshal bulk action: %w", err)
		}
		source, err := json.Marshal(toSource(doc))
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", doc.ID, err)
		}
		body.Write(meta)
		body.WriteByte('\n')
		body.Write(source)
		body.WriteByte('\n')
	}

	res, err := s.es.Bulk(bytes.NewReader(body.Bytes()), s.es.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("bulk write: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk write: %s", res.Status())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("bulk write: %s", firstItemError(parsed))
	}

	s.logger.Debug("bulk upsert committed", "index", s.index, "documents", len(docs))
	return nil
}

func firstItemError(parsed bulkResponse) string {
	for _, item := range parsed.Items {
		for _, result := range item {
			if result.Error != nil {
				return fmt.Sprintf("document %s: %s: %s", result.ID, result.Error.Type, result.Error.Reason)
			}
		}
	}
	return "unspecified item failure"
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string    `json:"_id"`
			Source docSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// TopRecent selects up to limit documents published inside [since, until],
// most popular first. Read-only; the index is never mutated here.
func (s *Store) TopRecent(ctx context.Context, since, until time.Time, limit int) ([]domain.StoredDocument, error) {
	query := map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				"published_at": map[string]any{
					"gte": since.UTC().Format(time.RFC3339),
					"lte": until.UTC().Format(time.RFC3339),
				},
			},
		},
		"sort": []any{
			map[string]any{"popularity": map[string]any{"order": "desc"}},
		},
		"size": limit,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal window query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("window query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("window query: %s: %s", res.Status(), strings.TrimSpace(string(detail)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode window response: %w", err)
	}

	selected := make([]domain.StoredDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		publishedAt, _ := time.Parse(time.RFC3339, hit.Source.PublishedAt)
		selected = append(selected, domain.StoredDocument{
			ID:          hit.ID,
			Title:       hit.Source.Title,
			Popularity:  hit.Source.Popularity,
			PublishedAt: publishedAt,
		})
	}
	return selected, nil
}

func toSource(doc domain.Document) docSource {
	return docSource{
		Title:       doc.Article.Title,
		Description: doc.Article.Description,
		URL:         doc.Article.URL,
		Source:      doc.Article.Source,
		Image:       doc.Article.Image,
		Category:    doc.Article.Category,
		Language:    doc.Article.Language,
		Country:     doc.Article.Country,
		PublishedAt: doc.Article.PublishedAt.UTC().Format(time.RFC3339),
		Popularity:  doc.Popularity,
	}
}
