package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/rs/zerolog"
)

// CodeAssistant improves, corrects and optimizes Python code
type CodeAssistant struct {
	base
}

// CodeResult is the payload returned by the code agent
type CodeResult struct {
	ImprovedCode string `json:"improved_code"`
	Explanation  string `json:"explanation"`
	Success      bool   `json:"success"`
	Message      string `json:"message"`
}

// DebugReportResult is the payload returned by GenerateDebugReport
type DebugReportResult struct {
	DebugReport string `json:"debug_report"`
	FixedCode   string `json:"fixed_code"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

var codeTaskDescriptions = map[string]string{
	"correction":   "Corrige les erreurs dans le code tout en préservant sa fonctionnalité originale.",
	"optimisation": "Optimise le code pour améliorer ses performances (vitesse d'exécution, utilisation de la mémoire).",
	"refactoring":  "Réorganise le code pour améliorer sa lisibilité et sa maintenabilité sans changer son comportement.",
	"pep8":         "Modifie le code pour respecter les conventions de style PEP 8 de Python.",
	"debug":        "Identifie les problèmes potentiels dans le code et propose des solutions.",
}

// NewCodeAssistant creates the code agent bound to a connector
func NewCodeAssistant(connector llm.Connector, logger zerolog.Logger) *CodeAssistant {
	return &CodeAssistant{
		base: base{
			connector: connector,
			logger:    logger,
			info: Info{
				Name:        "CodeAssistant",
				Description: "Agent spécialisé dans l'amélioration et le débogage de code Python",
			},
		},
	}
}

// Process improves the submitted code according to the requested task type
func (a *CodeAssistant) Process(ctx context.Context, data TaskRequest) (interface{}, error) {
	code := data.String("code")
	taskType := data.String("task_type")
	if taskType == "" {
		taskType = "correction"
	}
	requirements := data.StringSlice("requirements")
	execContext := data.String("context")

	if code == "" {
		return CodeResult{
			Explanation: "Aucun code fourni à améliorer.",
			Success:     false,
			Message:     "Erreur: code manquant",
		}, nil
	}

	a.logger.Info().Str("task_type", taskType).Msg("Processing code improvement task")

	prompt := buildCodePrompt(code, taskType, requirements, execContext)

	result, err := a.connector.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:     2048,
		Temperature:   0.2,
		SystemMessage: "Tu es un expert en Python qui excelle dans l'amélioration et l'optimisation de code.",
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error in code improvement")
		return CodeResult{
			Success: false,
			Message: fmt.Sprintf("Erreur lors de l'amélioration du code: %v", err),
		}, nil
	}

	improvedCode, explanation := splitCodeResponse(result)

	return CodeResult{
		ImprovedCode: improvedCode,
		Explanation:  explanation,
		Success:      true,
		Message:      fmt.Sprintf("Code %s effectué avec succès", taskType),
	}, nil
}

// GenerateDebugReport produces a debug report plus a corrected version of
// the submitted code. The HTTP layer calls this directly, without going
// through the orchestrator.
func (a *CodeAssistant) GenerateDebugReport(ctx context.Context, code, errorMessage string) DebugReportResult {
	if code == "" {
		return DebugReportResult{
			Success: false,
			Message: "Aucun code fourni à déboguer",
		}
	}

	a.logger.Info().Msg("Generating debug report")

	prompt := buildFixPrompt(code, errorMessage)

	result, err := a.connector.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:     2048,
		Temperature:   0.3,
		SystemMessage: "Tu es un expert en débogage Python capable d'identifier et de résoudre rapidement les problèmes complexes.",
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error generating debug report")
		return DebugReportResult{
			Success: false,
			Message: fmt.Sprintf("Erreur lors de la génération du rapport de debug: %v", err),
		}
	}

	report, fixedCode := splitDebugResponse(result)

	return DebugReportResult{
		DebugReport: report,
		FixedCode:   fixedCode,
		Success:     true,
		Message:     "Rapport de debug généré avec succès",
	}
}

func buildCodePrompt(code, taskType string, requirements []string, execContext string) string {
	taskDesc, ok := codeTaskDescriptions[taskType]
	if !ok {
		taskDesc = "Améliore le code Python fourni."
	}

	reqStr := "Aucune exigence spécifique."
	if len(requirements) > 0 {
		items := make([]string, len(requirements))
		for i, req := range requirements {
			items[i] = "- " + req
		}
		reqStr = strings.Join(items, "\n")
	}

	var contextSection string
	if execContext != "" {
		contextSection = "Contexte d'utilisation:\n" + execContext
	}

	return fmt.Sprintf(`En tant qu'expert Python, ta tâche est de: %s

Code Python à améliorer:
`+"```python\n%s\n```"+`

Exigences spécifiques:
%s

%s

Instructions:
1. Analyse attentivement le code fourni
2. %s
3. Fournis le code amélioré
4. Explique les modifications importantes que tu as apportées

Réponds en fournissant d'abord le code amélioré encadré par `+"```python et ```"+`, puis une explication claire des modifications.
`, taskDesc, code, reqStr, contextSection, taskDesc)
}

func buildFixPrompt(code, errorMessage string) string {
	var errorContext string
	if errorMessage != "" {
		errorContext = fmt.Sprintf("\nLe code génère l'erreur suivante:\n```\n%s\n```", errorMessage)
	}

	return fmt.Sprintf(`En tant qu'expert en débogage Python, analyse ce code et identifie ses problèmes:

`+"```python\n%s\n```"+`
%s

Instructions:
1. Analyse le code et identifie tous les problèmes (erreurs de syntaxe, bugs logiques, inefficacités, etc.)
2. Explique chaque problème identifié et pourquoi il pose problème
3. Propose une solution correcte pour chaque problème
4. Fournis une version corrigée et améliorée du code

Réponds avec:
1. Un rapport de débogage détaillé expliquant les problèmes
2. Le code corrigé entre balises `+"```python et ```"+`
`, code, errorContext)
}
