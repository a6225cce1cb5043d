package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yogveda/backend/internal/errs"
)

// PgvectorStore keeps the chunk index in the service's own Postgres using
// the pgvector extension, as a local alternative to a hosted index.
type PgvectorStore struct {
	db        *gorm.DB
	dimension int
	logger    *logrus.Logger
}

// NewPgvectorStore creates the extension, the chunk table sized to the
// configured dimension, and a cosine HNSW index. A pre-existing table with a
// different dimension surfaces as a config error.
func NewPgvectorStore(db *gorm.DB, dimension int, logger *logrus.Logger) (*PgvectorStore, error) {
	s := &PgvectorStore{db: db, dimension: dimension, logger: logger}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kb_chunks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		source TEXT,
		page TEXT,
		article_id TEXT NOT NULL,
		chunk_index INT NOT NULL,
		total_chunks INT NOT NULL,
		embedding vector(%d) NOT NULL
	)`, dimension)
	if err := db.Exec(createTable).Error; err != nil {
		return nil, fmt.Errorf("failed to create kb_chunks table: %w", err)
	}

	existing, err := s.tableDimension()
	if err != nil {
		return nil, err
	}
	if existing != dimension {
		return nil, errs.New(errs.KindConfig,
			fmt.Sprintf("kb_chunks embedding dimension is %d, config expects %d", existing, dimension))
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_kb_chunks_embedding
		ON kb_chunks USING hnsw (embedding vector_cosine_ops)`).Error; err != nil {
		return nil, fmt.Errorf("failed to create embedding index: %w", err)
	}

	logger.WithField("dimension", dimension).Info("pgvector chunk store ready")
	return s, nil
}

func (s *PgvectorStore) Upsert(ctx context.Context, records []Record) error {
	for _, record := range records {
		if len(record.Values) != s.dimension {
			return errs.New(errs.KindConfig,
				fmt.Sprintf("record %s has dimension %d, index expects %d", record.ID, len(record.Values), s.dimension))
		}
		err := s.db.WithContext(ctx).Exec(`
			INSERT INTO kb_chunks (id, title, content, source, page, article_id, chunk_index, total_chunks, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				content = EXCLUDED.content,
				source = EXCLUDED.source,
				page = EXCLUDED.page,
				article_id = EXCLUDED.article_id,
				chunk_index = EXCLUDED.chunk_index,
				total_chunks = EXCLUDED.total_chunks,
				embedding = EXCLUDED.embedding`,
			record.ID, record.Metadata.Title, record.Metadata.Content,
			record.Metadata.Source, record.Metadata.Page, record.Metadata.ArticleID,
			record.Metadata.ChunkIndex, record.Metadata.TotalChunks,
			pgvector.NewVector(record.Values),
		).Error
		if err != nil {
			return errs.Wrap(errs.KindRetrieval, fmt.Sprintf("upsert of %s failed", record.ID), err)
		}
	}
	return nil
}

type pgvectorRow struct {
	ID          string
	Title       string
	Content     string
	Source      string
	Page        string
	ArticleID   string
	ChunkIndex  int
	TotalChunks int
	Score       float64
}

func (s *PgvectorStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, errs.New(errs.KindRetrieval,
			fmt.Sprintf("query vector dimension %d, index expects %d", len(vector), s.dimension))
	}

	embedded := pgvector.NewVector(vector)
	var rows []pgvectorRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, title, content, source, page, article_id, chunk_index, total_chunks,
		       1 - (embedding <=> ?) AS score
		FROM kb_chunks
		ORDER BY embedding <=> ?
		LIMIT ?`, embedded, embedded, topK).Scan(&rows).Error
	if err != nil {
		return nil, errs.Wrap(errs.KindRetrieval, "similarity query failed", err)
	}

	matches := make([]Match, len(rows))
	for i, row := range rows {
		matches[i] = Match{
			ID:    row.ID,
			Score: row.Score,
			Metadata: ChunkMetadata{
				Title:       row.Title,
				Content:     row.Content,
				Source:      row.Source,
				Page:        row.Page,
				ArticleID:   row.ArticleID,
				ChunkIndex:  row.ChunkIndex,
				TotalChunks: row.TotalChunks,
			},
		}
	}
	return matches, nil
}

func (s *PgvectorStore) Stats(ctx context.Context) (*IndexStats, error) {
	var count int64
	if err := s.db.WithContext(ctx).Raw(`SELECT count(*) FROM kb_chunks`).Scan(&count).Error; err != nil {
		return nil, errs.Wrap(errs.KindRetrieval, "chunk count failed", err)
	}
	return &IndexStats{TotalRecordCount: int(count), Dimension: s.dimension}, nil
}

// tableDimension reads the vector typmod of the embedding column, which
// pgvector stores as the declared dimension.
func (s *PgvectorStore) tableDimension() (int, error) {
	var typmod int
	err := s.db.Raw(`
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'kb_chunks'::regclass AND attname = 'embedding'`).Scan(&typmod).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read embedding dimension: %w", err)
	}
	return typmod, nil
}
