// Package vectorstore abstracts the nearest-neighbor index. Two strategies
// satisfy the same interface: a Pinecone REST index and a pgvector table in
// the service's own Postgres. The metric is cosine in both.
package vectorstore

import (
	"context"

	"github.com/yogveda/backend/internal/models"
)

// ChunkMetadata is the payload stored beside each vector, enough to rebuild
// a citation without a second lookup.
type ChunkMetadata struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	Page        string `json:"page"`
	ArticleID   string `json:"articleId"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
}

// Record is one vector plus metadata, keyed by the chunk's stable ID so
// re-ingestion overwrites rather than duplicates.
type Record struct {
	ID       string        `json:"id"`
	Values   []float32     `json:"values"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Match is one ranked nearest-neighbor result.
type Match struct {
	ID       string        `json:"id"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// IndexStats describes the live index.
type IndexStats struct {
	TotalRecordCount int `json:"totalRecordCount"`
	Dimension        int `json:"dimension"`
}

// Store is the nearest-neighbor service consumed by retrieval and ingestion.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Stats(ctx context.Context) (*IndexStats, error)
}

// RecordFromChunk pairs a chunk with its embedding.
func RecordFromChunk(chunk models.Chunk, vector []float32) Record {
	return Record{
		ID:     chunk.ID,
		Values: vector,
		Metadata: ChunkMetadata{
			Title:       chunk.Title,
			Content:     chunk.Content,
			Source:      chunk.Source,
			Page:        chunk.Page,
			ArticleID:   chunk.ArticleID,
			ChunkIndex:  chunk.ChunkIndex,
			TotalChunks: chunk.TotalChunks,
		},
	}
}
