// Package pipeline sequences one query through safety check, topic boundary,
// embedding, retrieval, answer composition and audit logging.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/compose"
	"github.com/yogveda/backend/internal/embedding"
	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/safety"
)

// RejectionMessage is the fixed reply for out-of-scope queries.
const RejectionMessage = "I'm a yoga wellness assistant and can only answer questions about yoga practice, " +
	"poses, breathing techniques, and meditation. Please ask me something related to yoga!"

// BoundaryModel names the short-circuit path in response metadata.
const BoundaryModel = "boundary-check"

const maxQueryLength = 500

// storedEmbeddingDims caps the embedding slice persisted on the audit record.
const storedEmbeddingDims = 100

// storedChunkChars caps the per-chunk content snapshot on the audit record.
const storedChunkChars = 200

// ContextRetriever fetches ranked context for a query embedding.
type ContextRetriever interface {
	Retrieve(ctx context.Context, queryEmbedding []float32, topK int) ([]models.RetrievalMatch, error)
}

// AnswerComposer produces the answer for a query over its context.
type AnswerComposer interface {
	Compose(ctx context.Context, query string, matches []models.RetrievalMatch, assessment models.SafetyAssessment) compose.Result
}

// ClientMeta carries request attribution into the audit record.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// Orchestrator holds no per-request state: independent queries run fully
// concurrently, bounded only by the downstream services.
type Orchestrator struct {
	assessor  safety.Assessor
	filter    *safety.TopicFilter
	messenger *safety.Messenger
	embedder  embedding.Embedder
	retriever ContextRetriever
	composer  AnswerComposer
	repo      models.QueryLogRepository
	logger    *logrus.Logger
}

func NewOrchestrator(
	assessor safety.Assessor,
	filter *safety.TopicFilter,
	messenger *safety.Messenger,
	embedder embedding.Embedder,
	retriever ContextRetriever,
	composer AnswerComposer,
	repo models.QueryLogRepository,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		assessor:  assessor,
		filter:    filter,
		messenger: messenger,
		embedder:  embedder,
		retriever: retriever,
		composer:  composer,
		repo:      repo,
		logger:    logger,
	}
}

// Ask runs the full pipeline for one query. Validation failures produce no
// audit record; embedding and retrieval failures are fatal for the request
// but still logged as error records; generation failures are already masked
// by the composer and the request succeeds.
func (o *Orchestrator) Ask(ctx context.Context, rawQuery string, client ClientMeta) (*models.AskResponse, error) {
	startTime := time.Now()

	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return nil, errs.New(errs.KindValidation, "query is required and must be a non-empty string")
	}
	if utf8.RuneCountInString(rawQuery) > maxQueryLength {
		return nil, errs.New(errs.KindValidation,
			fmt.Sprintf("query is too long, please keep it under %d characters", maxQueryLength))
	}

	// Safety always runs first, before the boundary decision, so a query is
	// never classified differently depending on whether it was in domain.
	assessment := o.assessor.Assess(query)

	o.logger.WithFields(logrus.Fields{
		"query":      query,
		"is_unsafe":  assessment.IsUnsafe,
		"categories": assessment.Categories,
	}).Info("Safety check completed")

	if !o.filter.InScope(query, assessment) {
		o.logger.WithField("query", query).Info("Out-of-scope query rejected")
		return o.respondRejected(query, startTime, client), nil
	}

	queryEmbedding, err := o.embedder.Embed(ctx, query)
	if err != nil {
		o.logErrorRecord(query, err, startTime, client)
		return nil, err
	}

	matches, err := o.retriever.Retrieve(ctx, queryEmbedding, 0)
	if err != nil {
		o.logErrorRecord(query, err, startTime, client)
		return nil, err
	}

	result := o.composer.Compose(ctx, query, matches, assessment)
	if result.Degraded {
		o.logger.WithField("reason", result.Reason).Warn("Answer degraded to fallback template")
	}

	var safetyMessage string
	var alternatives []string
	if assessment.IsUnsafe {
		safetyMessage = o.messenger.Message(assessment.Categories)
		alternatives = o.messenger.Alternatives(assessment.Categories)
	}
	if alternatives == nil {
		alternatives = []string{}
	}

	responseTime := int(time.Since(startTime).Milliseconds())

	record := &models.QueryLog{
		PublicID:        uuid.NewString(),
		Query:           query,
		Embedding:       truncateEmbedding(queryEmbedding),
		RetrievedChunks: snapshotChunks(matches),
		Answer:          result.Answer,
		IsUnsafe:        assessment.IsUnsafe,
		SafetyKeywords:  models.StringArray(assessment.Keywords),
		SafetyMessage:   safetyMessage,
		Model:           result.Model,
		ResponseTimeMs:  responseTime,
		IPAddress:       client.IPAddress,
		UserAgent:       client.UserAgent,
	}
	o.persist(record)

	sources := make([]models.SourceRef, len(matches))
	for i, match := range matches {
		sources[i] = models.SourceRef{
			ID:             i + 1,
			Title:          match.Title,
			Source:         match.Source,
			Page:           match.Page,
			RelevanceScore: match.Score,
		}
	}

	detected := assessment.Categories
	if detected == nil {
		detected = []string{}
	}

	return &models.AskResponse{
		QueryID: record.PublicID,
		Answer:  result.Answer,
		Sources: sources,
		Safety: models.SafetyBlock{
			IsUnsafe:           assessment.IsUnsafe,
			Message:            safetyMessage,
			Alternatives:       alternatives,
			DetectedConditions: detected,
		},
		Metadata: models.AskMetadata{
			ResponseTime:    responseTime,
			ChunksRetrieved: len(matches),
			Model:           result.Model,
		},
	}, nil
}

func (o *Orchestrator) respondRejected(query string, startTime time.Time, client ClientMeta) *models.AskResponse {
	responseTime := int(time.Since(startTime).Milliseconds())

	record := &models.QueryLog{
		PublicID:        uuid.NewString(),
		Query:           query,
		Embedding:       models.FloatArray{},
		RetrievedChunks: models.ChunkSnapshots{},
		Answer:          RejectionMessage,
		IsUnsafe:        false,
		SafetyKeywords:  models.StringArray{},
		Model:           BoundaryModel,
		ResponseTimeMs:  responseTime,
		IPAddress:       client.IPAddress,
		UserAgent:       client.UserAgent,
	}
	o.persist(record)

	return &models.AskResponse{
		QueryID: record.PublicID,
		Answer:  RejectionMessage,
		Sources: []models.SourceRef{},
		Safety: models.SafetyBlock{
			IsUnsafe:           false,
			Alternatives:       []string{},
			DetectedConditions: []string{},
		},
		Metadata: models.AskMetadata{
			ResponseTime:    responseTime,
			ChunksRetrieved: 0,
			Model:           BoundaryModel,
		},
	}
}

// persist writes the audit record. The answer takes priority over audit
// durability: a write failure is reported but never fails the request.
func (o *Orchestrator) persist(record *models.QueryLog) {
	if err := o.repo.Create(record); err != nil {
		o.logger.WithError(errs.Wrap(errs.KindPersistence, "audit record write failed", err)).
			Error("Failed to log query")
	}
}

func (o *Orchestrator) logErrorRecord(query string, cause error, startTime time.Time, client ClientMeta) {
	record := &models.QueryLog{
		PublicID:        uuid.NewString(),
		Query:           query,
		Embedding:       models.FloatArray{},
		RetrievedChunks: models.ChunkSnapshots{},
		Answer:          fmt.Sprintf("Error: %v", cause),
		IsError:         true,
		SafetyKeywords:  models.StringArray{},
		ResponseTimeMs:  int(time.Since(startTime).Milliseconds()),
		IPAddress:       client.IPAddress,
		UserAgent:       client.UserAgent,
	}
	o.persist(record)
}

func truncateEmbedding(vector []float32) models.FloatArray {
	if len(vector) > storedEmbeddingDims {
		vector = vector[:storedEmbeddingDims]
	}
	return models.FloatArray(vector)
}

func snapshotChunks(matches []models.RetrievalMatch) models.ChunkSnapshots {
	snapshots := make(models.ChunkSnapshots, len(matches))
	for i, match := range matches {
		content := match.Content
		if runes := []rune(content); len(runes) > storedChunkChars {
			content = string(runes[:storedChunkChars])
		}
		snapshots[i] = models.ChunkSnapshot{
			ChunkID: match.ChunkID,
			Title:   match.Title,
			Content: content,
			Source:  match.Source,
			Page:    match.Page,
			Score:   match.Score,
		}
	}
	return snapshots
}
