package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OllamaConnector talks to a local Ollama inference server
type OllamaConnector struct {
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// OllamaOptions configures an Ollama connector
type OllamaOptions struct {
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewOllamaConnector creates a connector for an Ollama server
func NewOllamaConnector(opts OllamaOptions) *OllamaConnector {
	if opts.Model == "" {
		opts.Model = "mistral"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	if opts.Timeout == 0 {
		// Large generations take a while on local hardware
		opts.Timeout = 60 * time.Second
	}

	return &OllamaConnector{
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: opts.Logger,
	}
}

// Name returns the connector name
func (c *OllamaConnector) Name() string {
	return "ollama"
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// Generate produces a completion via the Ollama generate API
func (c *OllamaConnector) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_length", len(prompt)).
		Msg("Generating with Ollama")

	reqBody := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: opts.SystemMessage,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d: %s", ErrBackendUnavailable, resp.StatusCode, string(body))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if result.Response == nil {
		return "", fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	return *result.Response, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// CheckStatus reports whether the Ollama server is reachable and the
// configured model appears in its tag list. It does not issue a
// generation call.
func (c *OllamaConnector) CheckStatus(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Ollama status check failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}

	for _, m := range tags.Models {
		// Tags are reported as "name:tag"; accept a bare model name too
		if m.Name == c.model || strings.SplitN(m.Name, ":", 2)[0] == c.model {
			return true
		}
	}

	c.logger.Warn().
		Str("model", c.model).
		Msg("Model not found in Ollama tag list")
	return false
}
