package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/api/handlers"
	"github.com/yogveda/backend/internal/compose"
	"github.com/yogveda/backend/internal/config"
	"github.com/yogveda/backend/internal/database"
	"github.com/yogveda/backend/internal/embedding"
	"github.com/yogveda/backend/internal/generation"
	"github.com/yogveda/backend/internal/health"
	"github.com/yogveda/backend/internal/middleware"
	"github.com/yogveda/backend/internal/pipeline"
	"github.com/yogveda/backend/internal/repository"
	"github.com/yogveda/backend/internal/retrieval"
	"github.com/yogveda/backend/internal/safety"
	"github.com/yogveda/backend/internal/vectorstore"
	"github.com/yogveda/backend/pkg/utils"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	utils.InitLogger()
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to databases")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	store, err := buildVectorStore(cfg, dbManager, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize vector store")
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize answer generator")
	}

	tables := safety.DefaultTables()
	assessor := safety.NewClassifier(tables)
	filter := safety.NewTopicFilter(safety.DefaultTopicCues())
	messenger := safety.NewMessenger(tables)

	embedder := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.Dimension, logger)
	retriever := retrieval.NewRetriever(store, cfg.Vector.TopK, logger)
	composer := compose.NewComposer(generator, logger)
	repo := repository.NewQueryLogRepository(dbManager.DB)

	orchestrator := pipeline.NewOrchestrator(assessor, filter, messenger, embedder, retriever, composer, repo, logger)

	cache := database.NewCache(dbManager.Redis, logger)
	checker := health.NewHealthChecker(dbManager, store, logger)

	askHandler := handlers.NewAskHandler(orchestrator, cache, logger)
	feedbackHandler := handlers.NewFeedbackHandler(repo, logger)
	statsHandler := handlers.NewStatsHandler(repo, cache, logger)
	healthHandler := handlers.NewHealthHandler(checker, logger)

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute)

	router.GET("/", handleIndex)
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/live", healthHandler.HandleLiveness)

	api := router.Group("/api")
	api.Use(rateLimiter.RateLimit())
	{
		api.POST("/ask", askHandler.HandleAsk)
		api.POST("/feedback", feedbackHandler.HandleFeedback)
		api.GET("/ask/stats", statsHandler.HandleQueryStats)
		api.GET("/feedback/stats", statsHandler.HandleFeedbackStats)
		api.GET("/ask/recent", statsHandler.HandleRecentQueries)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go checker.PeriodicHealthCheck(ctx, time.Minute)

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}

func handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "yogveda-backend",
		"endpoints": gin.H{
			"ask":           "POST /api/ask",
			"feedback":      "POST /api/feedback",
			"askStats":      "GET /api/ask/stats",
			"feedbackStats": "GET /api/feedback/stats",
			"health":        "GET /health",
		},
	})
}

func buildVectorStore(cfg *config.Config, dbManager *database.Manager, logger *logrus.Logger) (vectorstore.Store, error) {
	switch cfg.Vector.Provider {
	case "pgvector":
		return vectorstore.NewPgvectorStore(dbManager.DB, cfg.Embedding.Dimension, logger)
	default:
		if err := cfg.ValidatePinecone(); err != nil {
			return nil, err
		}
		return vectorstore.NewPineconeClient(cfg.Vector.BaseURL, cfg.Vector.APIKey, logger), nil
	}
}

func buildGenerator(cfg *config.Config, logger *logrus.Logger) (generation.Generator, error) {
	if cfg.Generation.Provider == "fallback" {
		return nil, nil
	}
	if err := cfg.ValidateGroq(); err != nil {
		return nil, err
	}
	return generation.NewGroqClient(
		cfg.Generation.BaseURL,
		cfg.Generation.APIKey,
		cfg.Generation.Model,
		cfg.Generation.Temperature,
		cfg.Generation.MaxTokens,
		logger,
	), nil
}
