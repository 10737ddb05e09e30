package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mistral", cfg.LLM.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.BaseURL)
	assert.Equal(t, "llama3-70b-8192", cfg.LLM.Groq.Model)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.Anthropic.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, "ollama", cfg.RAG.EmbeddingProvider)
	assert.Equal(t, "nomic-embed-text", cfg.RAG.EmbeddingModel)
	assert.Equal(t, 768, cfg.RAG.EmbeddingDimension)
	assert.Equal(t, 4, cfg.RAG.TopK)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Console)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
