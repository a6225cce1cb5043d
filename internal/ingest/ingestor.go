// Package ingest loads the knowledge-base dataset, chunks it, embeds every
// chunk and writes the vectors to the index. Re-running over the same dataset
// overwrites records in place, so ingestion is idempotent.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/chunker"
	"github.com/yogveda/backend/internal/embedding"
	"github.com/yogveda/backend/internal/errs"
	"github.com/yogveda/backend/internal/models"
	"github.com/yogveda/backend/internal/vectorstore"
)

// upsertBatchSize bounds how many vectors go to the store per request.
const upsertBatchSize = 100

// Options controls a single ingestion run.
type Options struct {
	DryRun     bool
	Limit      int // max articles, 0 = all
	Concurrent int // embedding workers
}

// Report summarizes a completed ingestion run.
type Report struct {
	Articles    int
	Chunks      int
	Embedded    int
	Upserted    int
	Failed      int
	Duration    time.Duration
	IndexCount  int
	IndexChecks bool
}

type Ingestor struct {
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    vectorstore.Store
	logger   *logrus.Logger
}

func NewIngestor(ch *chunker.Chunker, embedder embedding.Embedder, store vectorstore.Store, logger *logrus.Logger) *Ingestor {
	return &Ingestor{
		chunker:  ch,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// LoadArticles reads the knowledge-base dataset from a JSON file.
func LoadArticles(path string) ([]models.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, fmt.Sprintf("failed to read dataset %s", path), err)
	}

	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, errs.Wrap(errs.KindConfig, fmt.Sprintf("failed to parse dataset %s", path), err)
	}

	for i := range articles {
		if articles[i].ID == "" {
			return nil, errs.New(errs.KindValidation, fmt.Sprintf("article at index %d has no id", i))
		}
		if articles[i].Text() == "" {
			return nil, errs.New(errs.KindValidation, fmt.Sprintf("article %s has no content", articles[i].ID))
		}
	}
	return articles, nil
}

// Run chunks the articles, embeds the chunks with a bounded worker pool and
// upserts the vectors in batches. A chunk that fails to embed is counted and
// skipped, it does not abort the run.
func (ing *Ingestor) Run(ctx context.Context, articles []models.Article, opts Options) (*Report, error) {
	start := time.Now()

	if opts.Limit > 0 && opts.Limit < len(articles) {
		articles = articles[:opts.Limit]
	}
	if opts.Concurrent <= 0 {
		opts.Concurrent = 2
	}

	chunks := ing.chunker.ChunkAll(articles)
	report := &Report{
		Articles: len(articles),
		Chunks:   len(chunks),
	}

	ing.logger.WithFields(logrus.Fields{
		"articles": len(articles),
		"chunks":   len(chunks),
		"workers":  opts.Concurrent,
		"dry_run":  opts.DryRun,
	}).Info("Starting ingestion")

	if opts.DryRun {
		for _, chunk := range chunks {
			ing.logger.WithFields(logrus.Fields{
				"chunk_id": chunk.ID,
				"title":    chunk.Title,
				"chars":    len(chunk.Content),
			}).Info("Would ingest chunk")
		}
		report.Duration = time.Since(start)
		return report, nil
	}

	records := make([]vectorstore.Record, len(chunks))
	ok := make([]bool, len(chunks))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for w := 0; w < opts.Concurrent; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vector, err := ing.embedder.Embed(ctx, chunks[i].Content)
				if err != nil {
					ing.logger.WithError(err).WithField("chunk_id", chunks[i].ID).Error("Failed to embed chunk")
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				records[i] = vectorstore.RecordFromChunk(chunks[i], vector)
				ok[i] = true
			}
		}()
	}

	for i := range chunks {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, errs.Wrap(errs.KindEmbedding, "ingestion cancelled", ctx.Err())
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report.Failed = failed
	embedded := make([]vectorstore.Record, 0, len(chunks))
	for i := range chunks {
		if ok[i] {
			embedded = append(embedded, records[i])
		}
	}
	report.Embedded = len(embedded)

	for offset := 0; offset < len(embedded); offset += upsertBatchSize {
		end := offset + upsertBatchSize
		if end > len(embedded) {
			end = len(embedded)
		}
		if err := ing.store.Upsert(ctx, embedded[offset:end]); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Upserted += end - offset
		ing.logger.WithField("upserted", report.Upserted).Debug("Upserted batch")
	}

	if stats, err := ing.store.Stats(ctx); err == nil {
		report.IndexCount = stats.TotalRecordCount
		report.IndexChecks = true
	} else {
		ing.logger.WithError(err).Warn("Failed to read index stats after ingestion")
	}

	report.Duration = time.Since(start)
	ing.logger.WithFields(logrus.Fields{
		"embedded": report.Embedded,
		"upserted": report.Upserted,
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	}).Info("Ingestion completed")

	return report, nil
}
