package models

import "time"

type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

type SourceRef struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	Page           string  `json:"page"`
	RelevanceScore float64 `json:"relevanceScore"`
}

type SafetyBlock struct {
	IsUnsafe           bool     `json:"isUnsafe"`
	Message            string   `json:"message,omitempty"`
	Alternatives       []string `json:"alternatives"`
	DetectedConditions []string `json:"detectedConditions"`
}

type AskMetadata struct {
	ResponseTime    int    `json:"responseTime"`
	ChunksRetrieved int    `json:"chunksRetrieved"`
	Model           string `json:"model"`
}

type AskResponse struct {
	QueryID  string      `json:"queryId"`
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
	Safety   SafetyBlock `json:"safety"`
	Metadata AskMetadata `json:"metadata"`
}

type FeedbackRequest struct {
	QueryID string `json:"queryId" binding:"required"`
	Helpful *bool  `json:"helpful" binding:"required"`
}

type FeedbackReceipt struct {
	QueryID   string    `json:"queryId"`
	Helpful   bool      `json:"helpful"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
