package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/health"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
	logger  *logrus.Logger
}

func NewHealthHandler(checker *health.HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// HandleHealth reports readiness of the service and its dependencies.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	overall := h.checker.CheckAll(c.Request.Context())

	services := make(map[string]string, len(overall.Services))
	for _, svc := range overall.Services {
		services[svc.Name] = svc.Status
	}

	response := models.HealthResponse{
		Status:    overall.Status,
		Service:   "yogveda-backend",
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	}

	code := http.StatusOK
	if overall.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	utils.SuccessResponse(c, code, "Health check", response)
}

// HandleLiveness is a bare liveness probe with no dependency checks.
func (h *HealthHandler) HandleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
