package vectorstore

import "github.com/yogveda/backend/internal/models"

func chunkFixture() models.Chunk {
	return models.Chunk{
		ID:          "art9_chunk_2",
		ArticleID:   "art9",
		ChunkIndex:  2,
		TotalChunks: 4,
		Content:     "Breathe in slowly through the nose.",
		Title:       "Anulom Vilom",
		Source:      "Common Yoga Protocol",
		Page:        "18",
	}
}
