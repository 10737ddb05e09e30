package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqConnector talks to the Groq hosted API. Groq exposes an
// OpenAI-compatible surface, so the official OpenAI client is pointed at
// the Groq endpoint.
type GroqConnector struct {
	client openai.Client
	model  string
	logger zerolog.Logger
}

// GroqOptions configures a Groq connector
type GroqOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  zerolog.Logger
}

// NewGroqConnector creates a connector for the Groq API
func NewGroqConnector(opts GroqOptions) *GroqConnector {
	if opts.Model == "" {
		opts.Model = "llama3-70b-8192"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = groqBaseURL
	}

	return &GroqConnector{
		client: openai.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithBaseURL(opts.BaseURL),
		),
		model:  opts.Model,
		logger: opts.Logger,
	}
}

// Name returns the connector name
func (c *GroqConnector) Name() string {
	return "groq"
}

// Generate produces a completion via chat completions
func (c *GroqConnector) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if opts.SystemMessage != "" {
		messages = append(messages, openai.SystemMessage(opts.SystemMessage))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}

	response, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", ErrMalformedResponse)
	}

	return response.Choices[0].Message.Content, nil
}

// CheckStatus lists the available models and tests membership of the
// configured one
func (c *GroqConnector) CheckStatus(ctx context.Context) bool {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Groq status check failed")
		return false
	}

	for _, m := range page.Data {
		if m.ID == c.model {
			return true
		}
	}

	c.logger.Warn().
		Str("model", c.model).
		Msg("Model not found in Groq model list")
	return false
}
