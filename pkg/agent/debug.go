package agent

import (
	"context"
	"fmt"

	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/rs/zerolog"
)

// DebugAssistant produces contextual debug reports for problematic code
type DebugAssistant struct {
	base
}

// DebugResult is the payload returned by the debug agent
type DebugResult struct {
	DebugReport string `json:"debug_report"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// NewDebugAssistant creates the debug agent bound to a connector
func NewDebugAssistant(connector llm.Connector, logger zerolog.Logger) *DebugAssistant {
	return &DebugAssistant{
		base: base{
			connector: connector,
			logger:    logger,
			info: Info{
				Name:        "DebugAssistant",
				Description: "Agent spécialisé dans l'analyse et le débogage de code Python",
			},
		},
	}
}

// Process generates a detailed debug report for the submitted code
func (a *DebugAssistant) Process(ctx context.Context, data TaskRequest) (interface{}, error) {
	code := data.String("code")
	errorMessage := data.String("error_message")
	execContext := data.String("context")

	if code == "" {
		return DebugResult{
			Success: false,
			Message: "Aucun code fourni à analyser.",
		}, nil
	}

	a.logger.Info().Msg("Generating debug report for Python code")

	prompt := buildAnalysisPrompt(code, errorMessage, execContext)

	result, err := a.connector.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:     2048,
		Temperature:   0.2,
		SystemMessage: "Tu es un expert en débogage de code Python avec une expérience approfondie dans l'analyse et la résolution de problèmes complexes.",
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error generating debug report")
		return DebugResult{
			Success: false,
			Message: fmt.Sprintf("Erreur lors de la génération du rapport de debug: %v", err),
		}, nil
	}

	return DebugResult{
		DebugReport: result,
		Success:     true,
		Message:     "Rapport de debug généré avec succès",
	}, nil
}

func buildAnalysisPrompt(code, errorMessage, execContext string) string {
	var errorSection string
	if errorMessage != "" {
		errorSection = fmt.Sprintf("\nMessage d'erreur rapporté:\n```\n%s\n```", errorMessage)
	}

	var contextSection string
	if execContext != "" {
		contextSection = "\nContexte d'exécution:\n" + execContext
	}

	return fmt.Sprintf(`Tu es un expert en débogage de code Python avec une expérience approfondie dans l'analyse et la résolution de problèmes complexes.

Je te présente un code Python qui pose problème et nécessite une analyse approfondie :
`+"```\n%s\n```"+`
%s
%s
`, code, errorSection, contextSection)
}
