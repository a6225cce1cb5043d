// Package embedding talks to the embedding service, an opaque text-to-vector
// endpoint that must stay dimensionally consistent with the vector index.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yogveda/backend/internal/errs"
)

// Embedder generates a fixed-length vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Client is an HTTP Embedder with a hard dimension check on every response.
type Client struct {
	baseURL    string
	dimension  int
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL string, dimension int, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retryOperation(ctx, c.logger, "embed", func() error {
		var err error
		vector, err = c.embedOnce(ctx, text)
		return err
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindEmbedding, "embedding service failed", err)
	}
	return vector, nil
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Embedding) != c.dimension {
		return nil, fmt.Errorf("dimension mismatch: service returned %d, index expects %d",
			len(result.Embedding), c.dimension)
	}

	c.logger.WithFields(logrus.Fields{
		"text_length": len(text),
		"dimension":   len(result.Embedding),
	}).Debug("Embedding generated")

	return result.Embedding, nil
}
