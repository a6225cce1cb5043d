package ingest

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogveda/backend/internal/chunker"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/vectorstore"
)

type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeStore struct {
	mu       sync.Mutex
	upserted map[string]vectorstore.Record
	batches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserted: make(map[string]vectorstore.Record)}
}

func (f *fakeStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	for _, r := range records {
		f.upserted[r.ID] = r
	}
	return nil
}

func (f *fakeStore) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*vectorstore.IndexStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &vectorstore.IndexStats{TotalRecordCount: len(f.upserted), Dimension: 3}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testArticles() []models.Article {
	return []models.Article{
		{ID: "surya-namaskar", Title: "Surya Namaskar", Content: "A flowing sequence of twelve poses.", Source: "Yoga Guide", Page: "12"},
		{ID: "pranayama", Title: "Pranayama", Content: "Breathing practice that steadies the mind.", Source: "Yoga Guide", Page: "30"},
	}
}

func newTestIngestor(t *testing.T, embedder *fakeEmbedder, store *fakeStore) *Ingestor {
	t.Helper()
	ch, err := chunker.New(350, 50)
	require.NoError(t, err)
	return NewIngestor(ch, embedder, store, testLogger())
}

func TestRunIngestsAllChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeStore()
	ing := newTestIngestor(t, embedder, store)

	report, err := ing.Run(context.Background(), testArticles(), Options{Concurrent: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Articles)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 2, report.Embedded)
	assert.Equal(t, 2, report.Upserted)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, store.upserted, 2)
	assert.Contains(t, store.upserted, "surya-namaskar_chunk_0")
}

func TestRunIsIdempotent(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeStore()
	ing := newTestIngestor(t, embedder, store)

	_, err := ing.Run(context.Background(), testArticles(), Options{})
	require.NoError(t, err)
	_, err = ing.Run(context.Background(), testArticles(), Options{})
	require.NoError(t, err)

	// Same chunk IDs both times, so the index holds one record per chunk.
	assert.Len(t, store.upserted, 2)
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeStore()
	ing := newTestIngestor(t, embedder, store)

	report, err := ing.Run(context.Background(), testArticles(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 0, report.Upserted)
	assert.Equal(t, 0, embedder.calls)
	assert.Empty(t, store.upserted)
}

func TestRunSkipsChunksThatFailToEmbed(t *testing.T) {
	embedder := &fakeEmbedder{failOn: "Breathing"}
	store := newFakeStore()
	ing := newTestIngestor(t, embedder, store)

	report, err := ing.Run(context.Background(), testArticles(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Embedded)
	assert.Equal(t, 1, report.Upserted)
	assert.Contains(t, store.upserted, "surya-namaskar_chunk_0")
	assert.NotContains(t, store.upserted, "pranayama_chunk_0")
}

func TestRunHonorsArticleLimit(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := newFakeStore()
	ing := newTestIngestor(t, embedder, store)

	report, err := ing.Run(context.Background(), testArticles(), Options{Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Articles)
	assert.Len(t, store.upserted, 1)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoadArticlesRejectsMissingFields(t *testing.T) {
	path := t.TempDir() + "/bad.json"
	require.NoError(t, writeFile(path, `[{"title": "No ID", "content": "text"}]`))

	_, err := LoadArticles(path)
	assert.Error(t, err)
}

func TestLoadArticlesAcceptsLegacyInfoField(t *testing.T) {
	path := t.TempDir() + "/legacy.json"
	require.NoError(t, writeFile(path, `[{"id": "a1", "title": "Asana", "info": "Legacy body text", "source": "Old Guide", "page": "1"}]`))

	articles, err := LoadArticles(path)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Legacy body text", articles[0].Text())
}
