package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/pipeline"
	"github.com/yogveda/backend/pkg/utils"
)

// askCacheTTL bounds how long a composed answer is served from Redis.
const askCacheTTL = 5 * time.Minute

// Asker runs one query through the answer pipeline.
type Asker interface {
	Ask(ctx context.Context, rawQuery string, client pipeline.ClientMeta) (*models.AskResponse, error)
}

// AnswerCache is the slice of the Redis cache the ask path consumes.
// Satisfied by *database.Cache.
type AnswerCache interface {
	CacheAskResponse(ctx context.Context, queryHash string, response interface{}, expiration time.Duration) error
	GetCachedAskResponse(ctx context.Context, queryHash string, result interface{}) error
	InvalidateQueryStats(ctx context.Context) error
}

type AskHandler struct {
	orchestrator Asker
	cache        AnswerCache
	logger       *logrus.Logger
}

func NewAskHandler(orchestrator Asker, cache AnswerCache, logger *logrus.Logger) *AskHandler {
	return &AskHandler{
		orchestrator: orchestrator,
		cache:        cache,
		logger:       logger,
	}
}

// HandleAsk processes question requests through the full answer pipeline.
func (h *AskHandler) HandleAsk(c *gin.Context) {
	startTime := time.Now()

	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid ask request")
		utils.ErrorResponse(c, http.StatusBadRequest, "query is required and must be a non-empty string", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"query":        req.Query,
		"user_session": h.getUserSession(c),
		"user_agent":   c.GetHeader("User-Agent"),
		"ip_address":   c.ClientIP(),
	}).Info("Processing ask request")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	// Serve identical questions from cache. Cached responses keep their
	// original queryId so feedback still lands on a real record.
	cacheKey := h.generateCacheKey(req.Query)
	if h.cache != nil {
		cached := &models.AskResponse{}
		if err := h.cache.GetCachedAskResponse(ctx, cacheKey, cached); err == nil {
			h.logger.Debug("Ask response served from cache")
			utils.SuccessResponse(c, http.StatusOK, "Answer generated", cached)
			return
		}
	}

	client := pipeline.ClientMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}

	response, err := h.orchestrator.Ask(ctx, req.Query, client)
	if err != nil {
		switch errs.KindOf(err) {
		case errs.KindValidation:
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		default:
			h.logger.WithError(err).Error("Ask pipeline failed")
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to process your question. Please try again.", err)
		}
		return
	}

	if h.cache != nil {
		if !response.Safety.IsUnsafe {
			if err := h.cache.CacheAskResponse(ctx, cacheKey, response, askCacheTTL); err != nil {
				h.logger.WithError(err).Warn("Failed to cache ask response")
			}
		}
		// A fresh audit record changed the aggregates.
		if err := h.cache.InvalidateQueryStats(ctx); err != nil {
			h.logger.WithError(err).Warn("Failed to invalidate stats cache")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"query_id":      response.QueryID,
		"chunks":        response.Metadata.ChunksRetrieved,
		"model":         response.Metadata.Model,
		"is_unsafe":     response.Safety.IsUnsafe,
		"response_time": time.Since(startTime).Milliseconds(),
	}).Info("Ask completed")

	utils.SuccessResponse(c, http.StatusOK, "Answer generated", response)
}

func (h *AskHandler) generateCacheKey(query string) string {
	return utils.MD5Hash(strings.ToLower(strings.TrimSpace(query)))
}

func (h *AskHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}
