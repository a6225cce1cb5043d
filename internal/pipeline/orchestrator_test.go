package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogveda/backend/internal/compose"
	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/safety"
)

type mockEmbedder struct {
	vector []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	if m.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return m.vector, nil
}

type mockRetriever struct {
	matches []models.RetrievalMatch
	err     error
	called  bool
}

func (m *mockRetriever) Retrieve(ctx context.Context, queryEmbedding []float32, topK int) ([]models.RetrievalMatch, error) {
	m.called = true
	return m.matches, m.err
}

type mockComposer struct {
	result compose.Result
	called bool
}

func (m *mockComposer) Compose(ctx context.Context, query string, matches []models.RetrievalMatch, assessment models.SafetyAssessment) compose.Result {
	m.called = true
	if m.result.Answer == "" {
		return compose.Result{Answer: "composed answer", Model: "test-model"}
	}
	return m.result
}

type mockRepo struct {
	records []*models.QueryLog
	err     error
}

func (m *mockRepo) Create(log *models.QueryLog) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, log)
	return nil
}

func (m *mockRepo) GetByPublicID(publicID string) (*models.QueryLog, error) {
	for _, r := range m.records {
		if r.PublicID == publicID {
			return r, nil
		}
	}
	return nil, errs.New(errs.KindNotFound, "query not found")
}

func (m *mockRepo) SetFeedback(publicID string, helpful bool, at time.Time) (*models.QueryLog, error) {
	record, err := m.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	record.FeedbackHelpful = &helpful
	record.FeedbackAt = &at
	return record, nil
}

func (m *mockRepo) GetRecent(limit int) ([]models.QueryLog, error) { return nil, nil }
func (m *mockRepo) Stats() (*models.QueryStats, error)            { return &models.QueryStats{}, nil }
func (m *mockRepo) FeedbackStats() (*models.FeedbackStats, error) {
	return &models.FeedbackStats{}, nil
}

type fixture struct {
	orchestrator *Orchestrator
	embedder     *mockEmbedder
	retriever    *mockRetriever
	composer     *mockComposer
	repo         *mockRepo
}

func newFixture() *fixture {
	logger := logrus.New()
	embedder := &mockEmbedder{}
	retriever := &mockRetriever{matches: []models.RetrievalMatch{
		{ChunkID: "a_chunk_0", Title: "Surya Namaskar", Content: "Twelve postures in sequence.", Source: "Common Yoga Protocol", Page: "9", Score: 0.9},
	}}
	composer := &mockComposer{}
	repo := &mockRepo{}

	tables := safety.DefaultTables()
	orchestrator := NewOrchestrator(
		safety.NewClassifier(tables),
		safety.NewTopicFilter(nil),
		safety.NewMessenger(tables),
		embedder,
		retriever,
		composer,
		repo,
		logger,
	)
	return &fixture{orchestrator, embedder, retriever, composer, repo}
}

func TestAsk_RejectsEmptyQuery(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator.Ask(context.Background(), "   ", ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Empty(t, f.repo.records, "validation failures produce no audit record")
}

func TestAsk_RejectsOversizedQuery(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator.Ask(context.Background(), strings.Repeat("a", 501), ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	assert.Empty(t, f.repo.records)
}

func TestAsk_QueryLimitCountsRunesNotBytes(t *testing.T) {
	f := newFixture()

	// 500 runes of multibyte text: over 500 bytes, but within the limit.
	query := "yoga " + strings.Repeat("ॐ", 495)
	_, err := f.orchestrator.Ask(context.Background(), query, ClientMeta{})
	require.NoError(t, err)

	_, err = f.orchestrator.Ask(context.Background(), "yoga "+strings.Repeat("ॐ", 496), ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

// Scenario A: a short off-topic query short-circuits before any expensive
// stage and still gets an audit record.
func TestAsk_BoundaryRejection(t *testing.T) {
	f := newFixture()

	resp, err := f.orchestrator.Ask(context.Background(), "hi", ClientMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, RejectionMessage, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.False(t, resp.Safety.IsUnsafe)
	assert.Equal(t, BoundaryModel, resp.Metadata.Model)
	assert.Equal(t, 0, resp.Metadata.ChunksRetrieved)

	assert.False(t, f.embedder.called)
	assert.False(t, f.retriever.called)
	assert.False(t, f.composer.called)

	require.Len(t, f.repo.records, 1)
	record := f.repo.records[0]
	assert.Empty(t, record.Embedding)
	assert.Empty(t, record.RetrievedChunks)
	assert.Equal(t, "10.0.0.1", record.IPAddress)
}

// Scenario B: an unsafe query always runs the full pipeline and carries the
// safety block.
func TestAsk_UnsafeQuerySafetyPivot(t *testing.T) {
	f := newFixture()

	resp, err := f.orchestrator.Ask(context.Background(), "Is headstand safe during pregnancy?", ClientMeta{})
	require.NoError(t, err)

	assert.True(t, resp.Safety.IsUnsafe)
	assert.Contains(t, resp.Safety.DetectedConditions, "pregnancy")
	assert.Contains(t, resp.Safety.Message, "consult")
	assert.NotEmpty(t, resp.Safety.Alternatives)
	assert.LessOrEqual(t, len(resp.Safety.Alternatives), 5)

	require.Len(t, f.repo.records, 1)
	assert.True(t, f.repo.records[0].IsUnsafe)
	assert.Contains(t, []string(f.repo.records[0].SafetyKeywords), "pregnancy")
}

// Scenario C: a normal in-domain query produces a grounded answer with
// numbered sources.
func TestAsk_NormalQuery(t *testing.T) {
	f := newFixture()

	resp, err := f.orchestrator.Ask(context.Background(), "What are the benefits of Surya Namaskar?", ClientMeta{})
	require.NoError(t, err)

	assert.False(t, resp.Safety.IsUnsafe)
	assert.NotEmpty(t, resp.Answer)
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, 1, resp.Sources[0].ID)
	assert.Equal(t, "Surya Namaskar", resp.Sources[0].Title)
	assert.Equal(t, 1, resp.Metadata.ChunksRetrieved)
	assert.Equal(t, "test-model", resp.Metadata.Model)
	assert.NotEmpty(t, resp.QueryID)
}

func TestAsk_EmbeddingFailureIsFatalButLogged(t *testing.T) {
	f := newFixture()
	f.embedder.err = errs.New(errs.KindEmbedding, "service down")

	_, err := f.orchestrator.Ask(context.Background(), "What is pranayama?", ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, errs.KindEmbedding, errs.KindOf(err))

	require.Len(t, f.repo.records, 1)
	assert.True(t, f.repo.records[0].IsError)
	assert.Contains(t, f.repo.records[0].Answer, "Error:")
}

func TestAsk_RetrievalFailureIsFatalButLogged(t *testing.T) {
	f := newFixture()
	f.retriever.err = errs.New(errs.KindRetrieval, "index missing")

	_, err := f.orchestrator.Ask(context.Background(), "What is pranayama?", ClientMeta{})
	require.Error(t, err)
	assert.Equal(t, errs.KindRetrieval, errs.KindOf(err))

	require.Len(t, f.repo.records, 1)
	assert.True(t, f.repo.records[0].IsError)
}

func TestAsk_DegradedCompositionStillSucceeds(t *testing.T) {
	f := newFixture()
	f.composer.result = compose.Result{
		Answer:   "Based on Surya Namaskar: twelve postures...",
		Degraded: true,
		Reason:   "quota exceeded",
		Model:    compose.FallbackModel,
	}

	resp, err := f.orchestrator.Ask(context.Background(), "What is Surya Namaskar?", ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, compose.FallbackModel, resp.Metadata.Model)
	assert.NotEmpty(t, resp.Answer)
}

func TestAsk_PersistenceFailureDoesNotBlockAnswer(t *testing.T) {
	f := newFixture()
	f.repo.err = errs.New(errs.KindPersistence, "db down")

	resp, err := f.orchestrator.Ask(context.Background(), "What is yoga nidra?", ClientMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}

func TestAsk_AuditRecordTruncation(t *testing.T) {
	f := newFixture()

	longVector := make([]float32, 384)
	for i := range longVector {
		longVector[i] = float32(i)
	}
	f.embedder.vector = longVector

	longContent := strings.Repeat("om ", 200)
	f.retriever.matches = []models.RetrievalMatch{
		{ChunkID: "c", Title: "Meditation", Content: longContent, Score: 0.8},
	}

	_, err := f.orchestrator.Ask(context.Background(), "How do I meditate?", ClientMeta{})
	require.NoError(t, err)

	require.Len(t, f.repo.records, 1)
	record := f.repo.records[0]
	assert.Len(t, record.Embedding, 100)
	require.Len(t, record.RetrievedChunks, 1)
	assert.LessOrEqual(t, len(record.RetrievedChunks[0].Content), 200)
}

func TestAsk_ChunkSnapshotTruncatesOnRuneBoundaries(t *testing.T) {
	f := newFixture()

	f.retriever.matches = []models.RetrievalMatch{
		{ChunkID: "c", Title: "Pranava", Content: strings.Repeat("ॐ", 300), Score: 0.8},
	}

	_, err := f.orchestrator.Ask(context.Background(), "What does om mean in yoga?", ClientMeta{})
	require.NoError(t, err)

	require.Len(t, f.repo.records, 1)
	snapshot := f.repo.records[0].RetrievedChunks[0].Content
	assert.True(t, utf8.ValidString(snapshot))
	assert.Equal(t, strings.Repeat("ॐ", 200), snapshot)
}

func TestAsk_SafetyRunsBeforeBoundary(t *testing.T) {
	f := newFixture()

	// Short, cue-free, but mentions a health condition: the safety flag must
	// carry it past the boundary filter into the full pipeline.
	resp, err := f.orchestrator.Ask(context.Background(), "I had a stroke", ClientMeta{})
	require.NoError(t, err)

	assert.True(t, resp.Safety.IsUnsafe)
	assert.True(t, f.embedder.called)
	assert.NotEqual(t, RejectionMessage, resp.Answer)
}
