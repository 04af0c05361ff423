// Package embedding wraps an OpenAI-compatible embedding service behind
// the ports.Embedder contract.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"newsdex/internal/config"
	"newsdex/internal/ports"
)

// batchEmbedder is the slice of the langchaingo embedder the client needs.
type batchEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder batches texts through the embedding model, fanning chunks out
// over a worker pool. Chunk parallelism is internal: callers always see
// results in input order.
type Embedder struct {
	inner     batchEmbedder
	pool      *ants.Pool
	batchSize int
	dim       int
	logger    *slog.Logger
}

var _ ports.Embedder = (*Embedder)(nil)

// New builds an embedder from configuration. Use "none" as the API key for
// local services that skip authentication.
func New(cfg config.EmbeddingConfig, logger *slog.Logger) (*Embedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	inner, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}

	return newWithInner(inner, cfg, logger)
}

func newWithInner(inner batchEmbedder, cfg config.EmbeddingConfig, logger *slog.Logger) (*Embedder, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("embedding worker pool: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Embedder{
		inner:     inner,
		pool:      pool,
		batchSize: batchSize,
		dim:       cfg.Dimension,
		logger:    logger,
	}, nil
}

// EmbedTexts embeds the ordered sequence of texts, preserving order. Each
// returned vector has the configured dimension; anything else is an error.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.logger.Debug("embedding texts", "count", len(texts), "batch_size", e.batchSize)

	results := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		chunk := texts[start:end]
		offset := start

		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			vectors, err := e.inner.EmbedDocuments(ctx, chunk)
			if err != nil {
				fail(fmt.Errorf("embed chunk at %d: %w", offset, err))
				return
			}
			if len(vectors) != len(chunk) {
				fail(fmt.Errorf("embed chunk at %d: got %d vectors for %d texts", offset, len(vectors), len(chunk)))
				return
			}
			copy(results[offset:offset+len(chunk)], vectors)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding chunk: %w", submitErr))
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	for i, vector := range results {
		if len(vector) != e.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vector), e.dim)
		}
	}

	return results, nil
}

// Close releases the worker pool.
func (e *Embedder) Close() {
	e.pool.Release()
}
