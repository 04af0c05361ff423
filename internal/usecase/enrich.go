package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdex/internal/identity"
	"newsdex/internal/ports"
)

// Enricher projects a trailing window of stored documents into the vector
// store. It holds no state of its own: each run re-selects, re-embeds, and
// re-inserts, which keeps failed runs retryable as a whole. Records that
// age out of the window are never deleted; the vector store is a trailing
// projection, not an authoritative copy.
type Enricher struct {
	store    ports.DocumentStore
	vectors  ports.VectorStore
	embedder ports.Embedder
	limit    int
	logger   *slog.Logger
}

// NewEnricher constructs the enrichment pipeline.
func NewEnricher(store ports.DocumentStore, vectors ports.VectorStore, embedder ports.Embedder, limit int, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		limit:    limit,
		logger:   logger,
	}
}

// Run selects the most popular documents published in [since, until],
// embeds their titles in selection order, re-keys their document IDs into
// the int64 space, and inserts the two parallel lists in one batch.
func (e *Enricher) Run(ctx context.Context, since, until time.Time) error {
	selected, err := e.store.TopRecent(ctx, since, until, e.limit)
	if err != nil {
		return fmt.Errorf("window selection: %w", err)
	}

	if len(selected) == 0 {
		// not an error; some vector-store clients reject zero-length batches,
		// so the run ends before touching model or store
		e.logger.Warn("window selection empty, nothing to enrich",
			"since", since.Format(time.RFC3339), "until", until.Format(time.RFC3339))
		return nil
	}

	e.logger.Info("documents selected for enrichment", "count", len(selected))

	if err := e.vectors.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	titles := make([]string, len(selected))
	for i, doc := range selected {
		titles[i] = doc.Title
	}

	embeddings, err := e.embedder.EmbedTexts(ctx, titles)
	if err != nil {
		return fmt.Errorf("embed titles: %w", err)
	}
	if len(embeddings) != len(selected) {
		return fmt.Errorf("embedding count mismatch: %d for %d documents", len(embeddings), len(selected))
	}

	ids := make([]int64, len(selected))
	for i, doc := range selected {
		ids[i], err = identity.VectorID(doc.ID)
		if err != nil {
			return fmt.Errorf("re-key document %s: %w", doc.ID, err)
		}
	}

	if err := e.vectors.Insert(ctx, ids, embeddings); err != nil {
		return fmt.Errorf("insert vectors: %w", err)
	}

	e.logger.Info("enrichment complete", "vectors", len(ids))
	return nil
}
