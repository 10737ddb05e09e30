package llm

import (
	"context"
	"errors"
)

// Connector is an interface for LLM backends
type Connector interface {
	// Generate produces a single completion for the prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// CheckStatus reports whether the backend is reachable and the
	// configured model is available. It never fails loudly: any internal
	// error yields false.
	CheckStatus(ctx context.Context) bool

	// Name returns the connector name
	Name() string
}

// GenerateOptions contains the generation parameters for a single call
type GenerateOptions struct {
	SystemMessage string
	Temperature   float64
	MaxTokens     int
}

var (
	// ErrBackendUnavailable indicates the backend could not be reached
	ErrBackendUnavailable = errors.New("llm backend unavailable")

	// ErrMalformedResponse indicates the backend answered with an
	// unexpected payload. A malformed reply is surfaced as an error,
	// never as an empty success.
	ErrMalformedResponse = errors.New("malformed llm response")
)

// DefaultOptions returns the generation defaults shared by the agents
func DefaultOptions() GenerateOptions {
	return GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}
