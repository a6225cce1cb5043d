package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/chunker"
	"github.com/yogveda/backend/internal/config"
	"github.com/yogveda/backend/internal/database"
	"github.com/yogveda/backend/internal/embedding"
	"github.com/yogveda/backend/internal/ingest"
	"github.com/yogveda/backend/internal/vectorstore"
	"github.com/yogveda/backend/pkg/utils"
)

var (
	dataFile   = flag.String("file", "data/yoga_knowledge.json", "Path to the knowledge-base JSON file")
	dryRun     = flag.Bool("dry-run", false, "Don't embed or upsert, just print what would be ingested")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	limit      = flag.Int("limit", 0, "Limit number of articles to ingest (0 = all)")
	concurrent = flag.Int("concurrent", 2, "Number of concurrent embedding workers")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	utils.InitLogger()
	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	articles, err := ingest.LoadArticles(*dataFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load dataset")
	}
	logger.WithFields(logrus.Fields{
		"file":     *dataFile,
		"articles": len(articles),
	}).Info("Dataset loaded")

	ch, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		logger.WithError(err).Fatal("Invalid chunking configuration")
	}

	store, err := buildVectorStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize vector store")
	}

	embedder := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.Dimension, logger)
	ingestor := ingest.NewIngestor(ch, embedder, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := ingestor.Run(ctx, articles, ingest.Options{
		DryRun:     *dryRun,
		Limit:      *limit,
		Concurrent: *concurrent,
	})
	if err != nil {
		logger.WithError(err).Fatal("Ingestion failed")
	}

	fields := logrus.Fields{
		"articles": report.Articles,
		"chunks":   report.Chunks,
		"embedded": report.Embedded,
		"upserted": report.Upserted,
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	}
	if report.IndexChecks {
		fields["index_records"] = report.IndexCount
	}
	logger.WithFields(fields).Info("Ingestion report")

	if report.Failed > 0 {
		os.Exit(1)
	}
}

func buildVectorStore(cfg *config.Config, logger *logrus.Logger) (vectorstore.Store, error) {
	if cfg.Vector.Provider == "pgvector" {
		dbManager, err := database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			RedisURL:    cfg.Redis.URL,
			LogLevel:    os.Getenv("LOG_LEVEL"),
		}, logger)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewPgvectorStore(dbManager.DB, cfg.Embedding.Dimension, logger)
	}

	if err := cfg.ValidatePinecone(); err != nil {
		return nil, err
	}
	return vectorstore.NewPineconeClient(cfg.Vector.BaseURL, cfg.Vector.APIKey, logger), nil
}
