package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 0.25, cfg.Retrieval.ScoreThreshold)
	assert.Equal(t, 2048, cfg.Retrieval.MaxContextTokens)
	assert.True(t, cfg.Retrieval.Deduplicate)
	assert.Equal(t, "/v1/completions", cfg.Generation.CompletionsPath)
	assert.Equal(t, 512, cfg.Generation.MaxTokens)
	assert.Equal(t, 0.2, cfg.Generation.Temperature)
	assert.Equal(t, 86400, cfg.Session.TTLSeconds)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "10")
	t.Setenv("RAG_MIN_SCORE", "0.5")
	t.Setenv("RAG_DEDUPLICATE", "off")
	t.Setenv("KSERVE_BASE_URL", "http://vllm:8080/")

	cfg := Load()

	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 0.5, cfg.Retrieval.ScoreThreshold)
	assert.False(t, cfg.Retrieval.Deduplicate)
	// Trailing slash is stripped so path concatenation stays clean.
	assert.Equal(t, "http://vllm:8080", cfg.Generation.BaseURL)
}

func TestValidateRequiresModelID(t *testing.T) {
	cfg := &Config{
		Generation: GenerationConfig{
			Enabled: true,
			BaseURL: "http://vllm:8080",
		},
	}
	assert.Error(t, cfg.Validate())

	cfg.Generation.ModelID = "mistral-7b"
	assert.NoError(t, cfg.Validate())
}

func TestValidateDisabledGenerationNeedsNoModel(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate())

	// Enabled but no base URL means no client is built, so the model id
	// check does not apply either.
	cfg.Generation.Enabled = true
	assert.NoError(t, cfg.Validate())
}
