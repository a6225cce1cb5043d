package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/pkg/utils"
)

type mockQueryLogRepo struct {
	records map[string]*models.QueryLog
}

func newMockQueryLogRepo(ids ...string) *mockQueryLogRepo {
	repo := &mockQueryLogRepo{records: make(map[string]*models.QueryLog)}
	for _, id := range ids {
		repo.records[id] = &models.QueryLog{PublicID: id, Query: "What is tadasana?", Answer: "An answer."}
	}
	return repo
}

func (m *mockQueryLogRepo) Create(log *models.QueryLog) error {
	m.records[log.PublicID] = log
	return nil
}

func (m *mockQueryLogRepo) GetByPublicID(publicID string) (*models.QueryLog, error) {
	record, ok := m.records[publicID]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "query not found")
	}
	return record, nil
}

func (m *mockQueryLogRepo) SetFeedback(publicID string, helpful bool, at time.Time) (*models.QueryLog, error) {
	record, err := m.GetByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	record.FeedbackHelpful = &helpful
	record.FeedbackAt = &at
	return record, nil
}

func (m *mockQueryLogRepo) GetRecent(limit int) ([]models.QueryLog, error) { return nil, nil }
func (m *mockQueryLogRepo) Stats() (*models.QueryStats, error)            { return &models.QueryStats{}, nil }
func (m *mockQueryLogRepo) FeedbackStats() (*models.FeedbackStats, error) {
	return &models.FeedbackStats{}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func postFeedback(t *testing.T, repo models.QueryLogRepository, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handler := NewFeedbackHandler(repo, quietLogger())
	router.POST("/api/feedback", handler.HandleFeedback)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleFeedback_RecordsHelpfulWithTimestamp(t *testing.T) {
	repo := newMockQueryLogRepo("q-123")

	w := postFeedback(t, repo, `{"queryId": "q-123", "helpful": true}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Thank you for your feedback!", resp.Message)

	record := repo.records["q-123"]
	require.NotNil(t, record.FeedbackHelpful)
	assert.True(t, *record.FeedbackHelpful)
	require.NotNil(t, record.FeedbackAt)
	assert.WithinDuration(t, time.Now(), *record.FeedbackAt, 5*time.Second)
}

func TestHandleFeedback_HelpfulFalseIsAccepted(t *testing.T) {
	repo := newMockQueryLogRepo("q-123")

	w := postFeedback(t, repo, `{"queryId": "q-123", "helpful": false}`)

	require.Equal(t, http.StatusOK, w.Code)
	record := repo.records["q-123"]
	require.NotNil(t, record.FeedbackHelpful)
	assert.False(t, *record.FeedbackHelpful)
}

func TestHandleFeedback_UnknownQueryIDReturns404(t *testing.T) {
	repo := newMockQueryLogRepo()

	w := postFeedback(t, repo, `{"queryId": "no-such-id", "helpful": true}`)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Query not found", resp.Error)
}

func TestHandleFeedback_NonBooleanHelpfulReturns400(t *testing.T) {
	repo := newMockQueryLogRepo("q-123")

	w := postFeedback(t, repo, `{"queryId": "q-123", "helpful": "yes"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, repo.records["q-123"].FeedbackHelpful)
}

func TestHandleFeedback_MissingFieldsReturn400(t *testing.T) {
	repo := newMockQueryLogRepo("q-123")

	assert.Equal(t, http.StatusBadRequest, postFeedback(t, repo, `{"helpful": true}`).Code)
	assert.Equal(t, http.StatusBadRequest, postFeedback(t, repo, `{"queryId": "q-123"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postFeedback(t, repo, `not json`).Code)
}
