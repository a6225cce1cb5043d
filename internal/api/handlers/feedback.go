package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/pkg/utils"
)

type FeedbackHandler struct {
	repo   models.QueryLogRepository
	logger *logrus.Logger
}

func NewFeedbackHandler(repo models.QueryLogRepository, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		repo:   repo,
		logger: logger,
	}
}

// HandleFeedback records a helpful / not helpful vote on a past answer.
func (h *FeedbackHandler) HandleFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "queryId and helpful are required", err)
		return
	}

	now := time.Now()
	record, err := h.repo.SetFeedback(req.QueryID, *req.Helpful, now)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			utils.ErrorResponse(c, http.StatusNotFound, "Query not found", nil)
			return
		}
		h.logger.WithError(err).Error("Failed to save feedback")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save feedback", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"query_id": record.PublicID,
		"helpful":  *req.Helpful,
	}).Info("Feedback recorded")

	receipt := models.FeedbackReceipt{
		QueryID:   record.PublicID,
		Helpful:   *req.Helpful,
		Timestamp: now,
	}
	utils.SuccessResponse(c, http.StatusOK, "Thank you for your feedback!", receipt)
}
