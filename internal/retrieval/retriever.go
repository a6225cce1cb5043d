// Package retrieval fetches the nearest chunks for a query embedding and
// normalizes them into the match shape the rest of the pipeline consumes.
package retrieval

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/vectorstore"
)

type Retriever struct {
	store       vectorstore.Store
	defaultTopK int
	logger      *logrus.Logger
}

func NewRetriever(store vectorstore.Store, defaultTopK int, logger *logrus.Logger) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &Retriever{
		store:       store,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
}

// Retrieve returns at most topK matches ordered by descending score. A
// non-positive topK uses the configured default. Store failures propagate:
// an answer composed without context is materially different from one with
// it, so they are never swallowed here.
func (r *Retriever) Retrieve(ctx context.Context, queryEmbedding []float32, topK int) ([]models.RetrievalMatch, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}

	hits, err := r.store.Query(ctx, queryEmbedding, topK)
	if err != nil {
		r.logger.WithError(err).Error("Vector store query failed")
		return nil, err
	}

	matches := make([]models.RetrievalMatch, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, models.RetrievalMatch{
			ChunkID: hit.ID,
			Title:   hit.Metadata.Title,
			Content: hit.Metadata.Content,
			Source:  hit.Metadata.Source,
			Page:    hit.Metadata.Page,
			Score:   hit.Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	r.logger.WithFields(logrus.Fields{
		"requested": topK,
		"returned":  len(matches),
	}).Debug("Context retrieved")

	return matches, nil
}
