package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// AnthropicConnector talks to the Anthropic API
type AnthropicConnector struct {
	client anthropic.Client
	model  string
	logger zerolog.Logger
}

// AnthropicOptions configures an Anthropic connector
type AnthropicOptions struct {
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// NewAnthropicConnector creates a connector for the Anthropic API
func NewAnthropicConnector(opts AnthropicOptions) *AnthropicConnector {
	if opts.Model == "" {
		opts.Model = "claude-3-5-sonnet-20241022"
	}

	return &AnthropicConnector{
		client: anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		model:  opts.Model,
		logger: opts.Logger,
	}
}

// Name returns the connector name
func (c *AnthropicConnector) Name() string {
	return "anthropic"
}

// Generate produces a completion via the messages API
func (c *AnthropicConnector) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.SystemMessage != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: opts.SystemMessage},
		}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	content := ""
	for _, block := range response.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += b.Text
		}
	}

	if content == "" {
		return "", fmt.Errorf("%w: no text content returned", ErrMalformedResponse)
	}

	return content, nil
}

// CheckStatus lists the available models and tests membership of the
// configured one
func (c *AnthropicConnector) CheckStatus(ctx context.Context) bool {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		c.logger.Debug().Err(err).Msg("Anthropic status check failed")
		return false
	}

	for _, m := range page.Data {
		if string(m.ID) == c.model {
			return true
		}
	}

	c.logger.Warn().
		Str("model", c.model).
		Msg("Model not found in Anthropic model list")
	return false
}
