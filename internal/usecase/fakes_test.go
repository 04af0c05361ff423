package usecase

import (
	"context"
	"errors"
	"time"

	"newsdex/internal/domain"
)

// fakeFeed serves canned pages keyed by offset.
type fakeFeed struct {
	pages   map[int]domain.FeedPage
	errAt   map[int]error
	offsets []int
}

func (f *fakeFeed) FetchPage(ctx context.Context, day time.Time, offset int) (domain.FeedPage, error) {
	f.offsets = append(f.offsets, offset)
	if err, ok := f.errAt[offset]; ok {
		return domain.FeedPage{}, err
	}
	page, ok := f.pages[offset]
	if !ok {
		return domain.FeedPage{}, errors.New("unexpected offset")
	}
	return page, nil
}

// fakeDocumentStore keeps upsert semantics in a map so duplicate IDs
// collapse the way the real index does.
type fakeDocumentStore struct {
	ensureCalls int
	ensureErr   error
	bulkErr     error
	bulkPages   [][]domain.Document
	byID        map[string]domain.Document

	recent    []domain.StoredDocument
	recentErr error
}

func (f *fakeDocumentStore) EnsureIndex(ctx context.Context) error {
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeDocumentStore) BulkUpsert(ctx context.Context, docs []domain.Document) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	if f.byID == nil {
		f.byID = map[string]domain.Document{}
	}
	f.bulkPages = append(f.bulkPages, docs)
	for _, doc := range docs {
		f.byID[doc.ID] = doc
	}
	return nil
}

func (f *fakeDocumentStore) TopRecent(ctx context.Context, since, until time.Time, limit int) ([]domain.StoredDocument, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

type fakeVectorStore struct {
	ensureCalls int
	insertCalls int
	insertErr   error
	ids         []int64
	vectors     [][]float32
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context) error {
	f.ensureCalls++
	return nil
}

func (f *fakeVectorStore) Insert(ctx context.Context, ids []int64, vectors [][]float32) error {
	f.insertCalls++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.ids = ids
	f.vectors = vectors
	return nil
}

func (f *fakeVectorStore) Close() error { return nil }

type fakeEmbedder struct {
	calls [][]string
	err   error
	dim   int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = make([]float32, f.dim)
		vectors[i][0] = float32(len(text))
	}
	return vectors, nil
}
