package vectorstore

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

// PineconeClient talks to one Pinecone index over its data-plane REST API.
// The index must pre-exist with a matching dimension and cosine metric.
type PineconeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewPineconeClient(baseURL, apiKey string, logger *logrus.Logger) *PineconeClient {
	return &PineconeClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type upsertRequest struct {
	Vectors []Record `json:"vectors"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type statsResponse struct {
	TotalVectorCount int `json:"totalVectorCount"`
	Dimension        int `json:"dimension"`
}

func (c *PineconeClient) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	err := retryOperation(ctx, c.logger, "pinecone upsert", func() error {
		return c.makeRequest(ctx, "/vectors/upsert", upsertRequest{Vectors: records}, nil)
	})
	return errs.Wrap(errs.KindRetrieval, "vector upsert failed", err)
}

func (c *PineconeClient) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	var response queryResponse
	err := retryOperation(ctx, c.logger, "pinecone query", func() error {
		return c.makeRequest(ctx, "/query", queryRequest{
			Vector:          vector,
			TopK:            topK,
			IncludeMetadata: true,
		}, &response)
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindRetrieval, "vector query failed", err)
	}
	return response.Matches, nil
}

func (c *PineconeClient) Stats(ctx context.Context) (*IndexStats, error) {
	var response statsResponse
	err := retryOperation(ctx, c.logger, "pinecone stats", func() error {
		return c.makeRequest(ctx, "/describe_index_stats", struct{}{}, &response)
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindRetrieval, "index stats failed", err)
	}
	return &IndexStats{
		TotalRecordCount: response.TotalVectorCount,
		Dimension:        response.Dimension,
	}, nil
}

func (c *PineconeClient) makeRequest(ctx context.Context, endpoint string, payload interface{}, result interface{}) error {
	url := c.baseURL + endpoint

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"url":          url,
		"payload_size": len(jsonData),
	}).Debug("Making Pinecone API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"url":           url,
		"response_size": len(responseBody),
	}).Debug("Pinecone API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
