package models

import "strings"

// Article is one knowledge-base unit, loaded from the static dataset at
// ingestion time. Older dataset revisions used "info" instead of "content"
// and carried a separate precautions field, so both are accepted.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Info        string `json:"info"`
	Precautions string `json:"precautions,omitempty"`
	Source      string `json:"source"`
	Page        string `json:"page"`
	Category    string `json:"category,omitempty"`
}

// Text returns the chunkable body of the article.
func (a *Article) Text() string {
	body := a.Content
	if body == "" {
		body = a.Info
	}
	if a.Precautions != "" {
		body = strings.TrimSpace(body) + "\n\nPrecautions: " + a.Precautions
	}
	return strings.TrimSpace(body)
}

// Chunk is a bounded word-count slice of an article, the unit of embedding
// and retrieval. Title, source and page are copied down for citation.
type Chunk struct {
	ID          string `json:"id"`
	ArticleID   string `json:"article_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Content     string `json:"content"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	Page        string `json:"page"`
}

// RetrievalMatch is one nearest-neighbor hit, produced per query and never
// persisted beyond the audit record.
type RetrievalMatch struct {
	ChunkID string  `json:"chunk_id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Page    string  `json:"page"`
	Score   float64 `json:"score"`
}

// SafetyAssessment is the classifier verdict for one query. Keywords and
// categories keep first-seen order and carry no duplicates.
type SafetyAssessment struct {
	IsUnsafe   bool     `json:"is_unsafe"`
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`
}
