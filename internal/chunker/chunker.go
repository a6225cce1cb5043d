// Package chunker splits knowledge-base articles into overlapping
// word-window chunks with stable identifiers for ingestion.
package chunker

import (
	"fmt"
	"strings"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
)

const (
	DefaultChunkSize = 350
	DefaultOverlap   = 50
)

type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the window parameters up front. An overlap at or above the
// chunk size would make the window stop advancing.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, errs.New(errs.KindConfig, fmt.Sprintf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, errs.New(errs.KindConfig, fmt.Sprintf("overlap must not be negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, errs.New(errs.KindConfig, fmt.Sprintf("overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize))
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits one article into chunks. Articles at or below the window size
// become exactly one chunk holding the full text verbatim; longer articles
// are sliced by a window advancing chunkSize-overlap words per step, so
// consecutive chunks share the overlap and no word is dropped at a boundary.
// Deterministic: the same article and parameters always produce the same
// chunk identifiers and contents.
func (c *Chunker) Chunk(article *models.Article) []models.Chunk {
	text := article.Text()
	words := strings.Fields(text)

	if len(words) <= c.chunkSize {
		return []models.Chunk{{
			ID:          chunkID(article.ID, 0),
			ArticleID:   article.ID,
			ChunkIndex:  0,
			TotalChunks: 1,
			Content:     text,
			Title:       article.Title,
			Source:      article.Source,
			Page:        article.Page,
		}}
	}

	step := c.chunkSize - c.overlap
	var contents []string
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		window := strings.Join(words[i:end], " ")
		if strings.TrimSpace(window) != "" {
			contents = append(contents, window)
		}
	}

	chunks := make([]models.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = models.Chunk{
			ID:          chunkID(article.ID, i),
			ArticleID:   article.ID,
			ChunkIndex:  i,
			TotalChunks: len(contents),
			Content:     content,
			Title:       article.Title,
			Source:      article.Source,
			Page:        article.Page,
		}
	}
	return chunks
}

// ChunkAll processes a whole knowledge base in article order.
func (c *Chunker) ChunkAll(articles []models.Article) []models.Chunk {
	var all []models.Chunk
	for i := range articles {
		all = append(all, c.Chunk(&articles[i])...)
	}
	return all
}

func chunkID(articleID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", articleID, index)
}
