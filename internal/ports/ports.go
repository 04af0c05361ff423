package ports

import (
	"context"
	"time"

	"newsdex/internal/domain"
)

// Feed pulls one page of ranked articles for a publish day.
type Feed interface {
	FetchPage(ctx context.Context, day time.Time, offset int) (domain.FeedPage, error)
}

// DocumentStore is the searchable index that owns ingested documents.
type DocumentStore interface {
	// EnsureIndex creates the backing index if it does not exist yet.
	EnsureIndex(ctx context.Context) error
	// BulkUpsert writes one page of documents in a single call. Writes are
	// keyed by content-derived IDs, so repeats overwrite instead of duplicating.
	BulkUpsert(ctx context.Context, docs []domain.Document) error
	// TopRecent returns up to limit documents published in [since, until],
	// ordered by popularity descending.
	TopRecent(ctx context.Context, since, until time.Time, limit int) ([]domain.StoredDocument, error)
}

// VectorStore holds embedding records keyed by int64 vector IDs.
type VectorStore interface {
	// EnsureCollection creates the collection and its similarity index if absent.
	EnsureCollection(ctx context.Context) error
	// Insert writes parallel ID and embedding lists in a single batch.
	Insert(ctx context.Context, ids []int64, vectors [][]float32) error
	Close() error
}

// Embedder turns an ordered sequence of texts into an ordered sequence of
// fixed-dimension vectors. Result order must match input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
