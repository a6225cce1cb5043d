package models

// GORM models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray for PostgreSQL text[] support
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		*s = StringArray(strings.Split(v, ","))
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// FloatArray for PostgreSQL real[] support (truncated query embeddings)
type FloatArray []float32

func (f FloatArray) Value() (driver.Value, error) {
	if len(f) == 0 {
		return "{}", nil
	}
	parts := make([]string, len(f))
	for i, v := range f {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ",")), nil
}

func (f *FloatArray) Scan(value interface{}) error {
	if value == nil {
		*f = FloatArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*f = FloatArray{}
			return nil
		}
		parts := strings.Split(v, ",")
		out := make(FloatArray, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return fmt.Errorf("cannot parse %q as float32: %w", p, err)
			}
			out = append(out, float32(n))
		}
		*f = out
	case []byte:
		return f.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into FloatArray", value)
	}
	return nil
}

// ChunkSnapshot is the truncated copy of one retrieved chunk stored on the
// audit record.
type ChunkSnapshot struct {
	ChunkID string  `json:"chunk_id"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Page    string  `json:"page"`
	Score   float64 `json:"score"`
}

// ChunkSnapshots is stored as a JSONB column.
type ChunkSnapshots []ChunkSnapshot

func (c ChunkSnapshots) Value() (driver.Value, error) {
	if c == nil {
		c = ChunkSnapshots{}
	}
	return json.Marshal(c)
}

func (c *ChunkSnapshots) Scan(value interface{}) error {
	if value == nil {
		*c = ChunkSnapshots{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("cannot scan %T into ChunkSnapshots", value)
	}
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueryLog is the audit record of one query's full pipeline trace. It is
// created once per request and mutated at most once by a feedback submission
// keyed on PublicID.
type QueryLog struct {
	BaseModel
	PublicID        string         `json:"public_id" gorm:"type:uuid;uniqueIndex;not null"`
	Query           string         `json:"query" gorm:"not null"`
	Embedding       FloatArray     `json:"embedding" gorm:"type:real[]"`
	RetrievedChunks ChunkSnapshots `json:"retrieved_chunks" gorm:"type:jsonb"`
	Answer          string         `json:"answer" gorm:"not null"`
	IsUnsafe        bool           `json:"is_unsafe" gorm:"default:false;index"`
	SafetyKeywords  StringArray    `json:"safety_keywords" gorm:"type:text[]"`
	SafetyMessage   string         `json:"safety_message"`
	Model           string         `json:"model"`
	ResponseTimeMs  int            `json:"response_time_ms"`
	IsError         bool           `json:"is_error" gorm:"default:false"`
	IPAddress       string         `json:"ip_address"`
	UserAgent       string         `json:"user_agent"`
	FeedbackHelpful *bool          `json:"feedback_helpful" gorm:"index"`
	FeedbackAt      *time.Time     `json:"feedback_at"`
}

func (QueryLog) TableName() string { return "query_logs" }

func (q *QueryLog) Validate() error {
	if q.PublicID == "" {
		return fmt.Errorf("public ID is required")
	}
	if q.Query == "" {
		return fmt.Errorf("query text is required")
	}
	if q.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

func (q *QueryLog) BeforeCreate(tx *gorm.DB) error {
	return q.Validate()
}

// QueryStats aggregates the audit log for the stats endpoint.
type QueryStats struct {
	TotalQueries     int64   `json:"totalQueries"`
	UnsafeQueries    int64   `json:"unsafeQueries"`
	SafeQueries      int64   `json:"safeQueries"`
	UnsafePercentage float64 `json:"unsafePercentage"`
	AvgResponseTime  float64 `json:"avgResponseTime"`
}

// FeedbackStats aggregates feedback submissions.
type FeedbackStats struct {
	TotalWithFeedback int64   `json:"totalWithFeedback"`
	Helpful           int64   `json:"helpful"`
	Unhelpful         int64   `json:"unhelpful"`
	HelpfulPercentage float64 `json:"helpfulPercentage"`
}

// Database interfaces for repository pattern
type QueryLogRepository interface {
	Create(log *QueryLog) error
	GetByPublicID(publicID string) (*QueryLog, error)
	SetFeedback(publicID string, helpful bool, at time.Time) (*QueryLog, error)
	GetRecent(limit int) ([]QueryLog, error)
	Stats() (*QueryStats, error)
	FeedbackStats() (*FeedbackStats, error)
}
