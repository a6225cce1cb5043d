package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yogveda/backend/internal/errs"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Embedding.Dimension = 384
	cfg.Vector.Provider = "pinecone"
	cfg.Vector.TopK = 5
	cfg.Generation.Provider = "groq"
	cfg.Chunking.Size = 350
	cfg.Chunking.Overlap = 50
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsOverlapAtOrAboveChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.Size = 50
	cfg.Chunking.Overlap = 50

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Equal(t, errs.KindConfig, errs.KindOf(err))

	cfg.Chunking.Overlap = 60
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeOverlap(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.Overlap = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownProviders(t *testing.T) {
	cfg := validConfig()
	cfg.Vector.Provider = "weaviate"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Generation.Provider = "openai"
	assert.Error(t, cfg.Validate())
}

func TestValidatePineconeRequiresKeyAndHost(t *testing.T) {
	cfg := validConfig()
	assert.Error(t, cfg.ValidatePinecone())

	cfg.Vector.APIKey = "pc-key"
	cfg.Vector.BaseURL = "https://yoga-wellness-rag.svc.pinecone.io"
	assert.NoError(t, cfg.ValidatePinecone())
}
