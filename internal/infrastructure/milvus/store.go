// Package milvus adapts Milvus as the vector store for article embeddings.
package milvus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"newsdex/internal/config"
	"newsdex/internal/ports"
)

const (
	idField     = "article_id"
	vectorField = "embedding"
	shardNum    = 1
)

// Store holds a long-lived Milvus connection for the process lifetime.
// Close must run on every exit path, including signal-driven shutdown, so
// the server does not keep a dangling session.
type Store struct {
	conn       client.Client
	collection string
	dim        int
	logger     *slog.Logger
}

var _ ports.VectorStore = (*Store)(nil)

// Connect dials the vector store.
func Connect(ctx context.Context, cfg config.MilvusConfig, dim int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to vector store", "address", cfg.Address)
	conn, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus %s: %w", cfg.Address, err)
	}

	return &Store{
		conn:       conn,
		collection: cfg.Collection,
		dim:        dim,
		logger:     logger,
	}, nil
}

// EnsureCollection lazily creates the collection with an int64 primary key,
// a fixed-dimension float-vector field, and a flat L2 similarity index.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.conn.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	s.logger.Info("creating collection", "collection", s.collection, "dim", s.dim)

	schema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("article title embeddings keyed by truncated document ids").
		WithField(entity.NewField().
			WithName(idField).
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(vectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(s.dim)))

	if err := s.conn.CreateCollection(ctx, schema, shardNum); err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}

	index, err := entity.NewIndexFlat(entity.L2)
	if err != nil {
		return fmt.Errorf("build flat index: %w", err)
	}
	if err := s.conn.CreateIndex(ctx, s.collection, vectorField, index, false); err != nil {
		return fmt.Errorf("create index on %s: %w", s.collection, err)
	}

	return nil
}

// Insert writes the parallel ID and embedding lists as one columnar batch.
// Milvus tolerates repeated primary keys, so retrying a failed run as a
// whole needs no delete-first pass.
func (s *Store) Insert(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("id/vector length mismatch: %d ids, %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return fmt.Errorf("refusing zero-length insert into %s", s.collection)
	}

	idColumn := entity.NewColumnInt64(idField, ids)
	vectorColumn := entity.NewColumnFloatVector(vectorField, s.dim, vectors)

	if _, err := s.conn.Insert(ctx, s.collection, "", idColumn, vectorColumn); err != nil {
		return fmt.Errorf("insert %d vectors into %s: %w", len(ids), s.collection, err)
	}

	s.logger.Info("vectors inserted", "collection", s.collection, "count", len(ids))
	return nil
}

// Close releases the connection.
func (s *Store) Close() error {
	s.logger.Info("closing vector store connection")
	return s.conn.Close()
}
