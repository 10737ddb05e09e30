package config

import (
	"fmt"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validEmbeddingProviders = map[string]bool{
	"ollama": true,
	"openai": true,
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitPerMinute)
	}

	if c.Logging.Level != "" && !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.LLM.Ollama.Model == "" {
		return fmt.Errorf("ollama model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %f", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("invalid max tokens: %d", c.LLM.MaxTokens)
	}

	if !validEmbeddingProviders[c.RAG.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding provider: %s", c.RAG.EmbeddingProvider)
	}
	if c.RAG.EmbeddingProvider == "openai" && c.RAG.OpenAIAPIKey == "" {
		return fmt.Errorf("openai embedding provider requires an API key")
	}
	if c.RAG.EmbeddingDimension <= 0 {
		return fmt.Errorf("invalid embedding dimension: %d", c.RAG.EmbeddingDimension)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("invalid chunk size: %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("invalid chunk overlap: %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("invalid top_k: %d", c.RAG.TopK)
	}

	return nil
}
