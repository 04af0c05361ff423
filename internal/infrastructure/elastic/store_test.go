package elastic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdex/internal/config"
	"newsdex/internal/domain"
)

// newTestServer wraps httptest with the product header the v8 client
// verifies on its first response.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestStore(t *testing.T, server *httptest.Server) *Store {
	t.Helper()
	store, err := New(config.ElasticConfig{Address: server.URL, Index: "raw_articles"}, nil)
	require.NoError(t, err)
	return store
}

func TestEnsureIndexCreatesOnMissing(t *testing.T) {
	t.Parallel()

	var createdBody string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/raw_articles":
			raw, _ := io.ReadAll(r.Body)
			createdBody = string(raw)
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	store := newTestStore(t, server)
	require.NoError(t, store.EnsureIndex(context.Background()))
	assert.Contains(t, createdBody, `"published_at"`)
	assert.Contains(t, createdBody, `"popularity"`)
}

func TestEnsureIndexSkipsExisting(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Errorf("index should not be recreated")
		}
		w.WriteHeader(http.StatusOK)
	})

	store := newTestStore(t, server)
	assert.NoError(t, store.EnsureIndex(context.Background()))
}

func TestBulkUpsertBuildsNDJSON(t *testing.T) {
	t.Parallel()

	var bulkBody string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/_bulk", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		bulkBody = string(raw)
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	store := newTestStore(t, server)

	docs := []domain.Document{
		{
			ID: "2258c096fc25eab05921a9222c6ca9cd",
			Article: domain.Article{
				Title:       "Example Headline",
				PublishedAt: time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC),
			},
			Popularity: 0.25,
		},
		{
			ID:         "5d41402abc4b2a76b9719d911017c592",
			Article:    domain.Article{Title: "hello", PublishedAt: time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)},
			Popularity: 0.5,
		},
	}
	require.NoError(t, store.BulkUpsert(context.Background(), docs))

	lines := strings.Split(strings.TrimSuffix(bulkBody, "\n"), "\n")
	require.Len(t, lines, 4, "one action and one source line per document")
	assert.Contains(t, lines[0], `"_id":"2258c096fc25eab05921a9222c6ca9cd"`)
	assert.Contains(t, lines[0], `"_index":"raw_articles"`)
	assert.Contains(t, lines[1], `"title":"Example Headline"`)
	assert.Contains(t, lines[1], `"popularity":0.25`)
	assert.Contains(t, lines[2], `"_id":"5d41402abc4b2a76b9719d911017c592"`)
	assert.True(t, strings.HasSuffix(bulkBody, "\n"), "bulk body must end with a newline")
}

func TestBulkUpsertSurfacesItemErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[
			{"index":{"_id":"ok","status":200}},
			{"index":{"_id":"bad","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}
		]}`))
	})

	store := newTestStore(t, server)

	err := store.BulkUpsert(context.Background(), []domain.Document{
		{ID: "bad", Article: domain.Article{Title: "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestBulkUpsertEmptyPageIsNoop(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for an empty page")
	})

	store := newTestStore(t, server)
	assert.NoError(t, store.BulkUpsert(context.Background(), nil))
}

func TestTopRecentParsesOrderedHits(t *testing.T) {
	t.Parallel()

	var queryBody string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		queryBody = string(raw)
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"aa11","_source":{"title":"First","popularity":0.9,"published_at":"2026-08-27T12:00:00Z"}},
			{"_id":"bb22","_source":{"title":"Second","popularity":0.4,"published_at":"2026-08-25T08:30:00Z"}}
		]}}`))
	})

	store := newTestStore(t, server)

	since := time.Date(2026, time.August, 19, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	docs, err := store.TopRecent(context.Background(), since, until, 50)
	require.NoError(t, err)

	assert.Contains(t, queryBody, `"gte":"2026-08-19T00:00:00Z"`)
	assert.Contains(t, queryBody, `"lte":"2026-08-29T00:00:00Z"`)
	assert.Contains(t, queryBody, `"size":50`)
	assert.Contains(t, queryBody, `"popularity"`)

	require.Len(t, docs, 2)
	assert.Equal(t, "aa11", docs[0].ID)
	assert.Equal(t, "First", docs[0].Title)
	assert.InDelta(t, 0.9, docs[0].Popularity, 1e-9)
	assert.Equal(t, "bb22", docs[1].ID)
}
