package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/database"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/pkg/utils"
)

const statsCacheTTL = time.Minute

type StatsHandler struct {
	repo   models.QueryLogRepository
	cache  *database.Cache
	logger *logrus.Logger
}

func NewStatsHandler(repo models.QueryLogRepository, cache *database.Cache, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// HandleQueryStats returns aggregate query counters.
func (h *StatsHandler) HandleQueryStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if h.cache != nil {
		cached := &models.QueryStats{}
		if err := h.cache.GetCachedQueryStats(ctx, cached); err == nil {
			utils.SuccessResponse(c, http.StatusOK, "Stats retrieved", cached)
			return
		}
	}

	stats, err := h.repo.Stats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute query stats")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.CacheQueryStats(ctx, stats, statsCacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache query stats")
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "Stats retrieved", stats)
}

// HandleFeedbackStats returns aggregate feedback counters.
func (h *StatsHandler) HandleFeedbackStats(c *gin.Context) {
	stats, err := h.repo.FeedbackStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute feedback stats")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Feedback stats retrieved", stats)
}

// HandleRecentQueries returns the most recent audit records.
func (h *StatsHandler) HandleRecentQueries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	logs, err := h.repo.GetRecent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recent queries")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load recent queries", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recent queries retrieved", logs)
}
