package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
)

func wordsArticle(n int) *models.Article {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return &models.Article{
		ID:      "art1",
		Title:   "Test Article",
		Content: strings.Join(words, " "),
		Source:  "Test Source",
		Page:    "12",
	}
}

func TestNew_RejectsOverlapAtOrAboveChunkSize(t *testing.T) {
	_, err := New(50, 50)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))

	_, err = New(50, 80)
	require.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))
}

func TestChunk_ShortArticleSingleChunk(t *testing.T) {
	c, err := New(350, 50)
	require.NoError(t, err)

	article := wordsArticle(100)
	chunks := c.Chunk(article)

	require.Len(t, chunks, 1)
	assert.Equal(t, "art1_chunk_0", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, article.Content, chunks[0].Content)
	assert.Equal(t, "Test Article", chunks[0].Title)
	assert.Equal(t, "Test Source", chunks[0].Source)
}

func TestChunk_LongArticleOverlappingWindows(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	article := wordsArticle(250)
	chunks := c.Chunk(article)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, fmt.Sprintf("art1_chunk_%d", i), chunk.ID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, len(chunks), chunk.TotalChunks)
	}

	// Overlap only adds, never drops: chunk word counts sum to at least the
	// article word count.
	total := 0
	for _, chunk := range chunks {
		total += len(strings.Fields(chunk.Content))
	}
	assert.GreaterOrEqual(t, total, 250)

	// Consecutive chunks share the overlap.
	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	assert.Equal(t, first[len(first)-20:], second[:20])
}

func TestChunk_Idempotent(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	article := wordsArticle(500)
	first := c.Chunk(article)
	second := c.Chunk(article)

	assert.Equal(t, first, second)
}

func TestChunk_ArticleWithInfoAndPrecautions(t *testing.T) {
	c, err := New(350, 50)
	require.NoError(t, err)

	article := &models.Article{
		ID:          "art2",
		Title:       "Shavasana",
		Info:        "A relaxation pose practiced lying on the back.",
		Precautions: "Avoid on a full stomach.",
		Source:      "Common Yoga Protocol",
	}

	chunks := c.Chunk(article)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "relaxation pose")
	assert.Contains(t, chunks[0].Content, "Precautions: Avoid on a full stomach.")
}

func TestChunkAll_PreservesArticleOrder(t *testing.T) {
	c, err := New(350, 50)
	require.NoError(t, err)

	articles := []models.Article{
		{ID: "a", Title: "A", Content: "first article"},
		{ID: "b", Title: "B", Content: "second article"},
	}

	chunks := c.ChunkAll(articles)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a_chunk_0", chunks[0].ID)
	assert.Equal(t, "b_chunk_0", chunks[1].ID)
}
