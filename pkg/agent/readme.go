package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/rs/zerolog"
)

// ReadmeGenerator produces complete Markdown README files for projects
type ReadmeGenerator struct {
	base
}

// ReadmeResult is the payload returned by the readme agent
type ReadmeResult struct {
	Content string `json:"content"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var defaultReadmeSections = []string{
	"Introduction", "Installation", "Utilisation", "Fonctionnalités",
	"Technologies", "Structure du projet", "Contribution", "Licence",
}

// NewReadmeGenerator creates the readme agent bound to a connector
func NewReadmeGenerator(connector llm.Connector, logger zerolog.Logger) *ReadmeGenerator {
	return &ReadmeGenerator{
		base: base{
			connector: connector,
			logger:    logger,
			info: Info{
				Name:        "ReadmeGenerator",
				Description: "Agent spécialisé dans la génération de README pour les projets",
			},
		},
	}
}

// Process generates a README from the project metadata in the request
func (a *ReadmeGenerator) Process(ctx context.Context, data TaskRequest) (interface{}, error) {
	projectName := data.String("project_name")
	projectDescription := data.String("project_description")
	codeSnippets := data.StringSlice("code_snippets")
	technologies := data.StringSlice("technologies")
	includeSections := data.StringSlice("include_sections")
	if len(includeSections) == 0 {
		includeSections = defaultReadmeSections
	}

	a.logger.Info().Str("project", projectName).Msg("Generating README")

	prompt := buildReadmePrompt(projectName, projectDescription, codeSnippets, technologies, includeSections)

	result, err := a.connector.Generate(ctx, prompt, llm.GenerateOptions{
		MaxTokens:     3000,
		Temperature:   0.7,
		SystemMessage: "Tu es un expert en documentation technique qui excelle dans la création de README professionnels.",
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Error generating README")
		return ReadmeResult{
			Success: false,
			Message: fmt.Sprintf("Erreur lors de la génération du README: %v", err),
		}, nil
	}

	return ReadmeResult{
		Content: result,
		Success: true,
		Message: fmt.Sprintf("README généré avec succès pour le projet %s", projectName),
	}, nil
}

func buildReadmePrompt(projectName, projectDescription string, codeSnippets, technologies, includeSections []string) string {
	techStr := "Non spécifié"
	if len(technologies) > 0 {
		items := make([]string, len(technologies))
		for i, tech := range technologies {
			items[i] = "- " + tech
		}
		techStr = strings.Join(items, "\n")
	}

	var codeSection string
	if len(codeSnippets) > 0 {
		var sb strings.Builder
		for i, snippet := range codeSnippets {
			fmt.Fprintf(&sb, "\nExtrait %d:\n```\n%s\n```\n", i+1, snippet)
		}
		codeSection = fmt.Sprintf("## Extraits de code représentatifs du projet: %s\n", sb.String())
	}

	return fmt.Sprintf(`Tu es un expert dans la création de documentation technique, spécialisé dans l'élaboration de README de qualité pour les projets de développement.

Je souhaite que tu génères un README complet au format Markdown pour le projet suivant :

## Informations sur le projet
- Nom du projet: %s
- Description: %s
- Technologies utilisées:
%s

%s
## Sections à inclure dans le README
%s

Génère un README professionnel, bien structuré et détaillé au format Markdown.
Le README doit inclure:
1. Un en-tête attrayant avec badges pertinents
2. Une description claire et concise du projet
3. Des instructions d'installation précises et étape par étape
4. Des exemples d'utilisation avec du code bien formaté
5. Une documentation des fonctionnalités principales
6. La structure du projet si appropriée
7. Des informations sur la contribution au projet
8. Des liens vers les ressources connexes

Pour chaque section demandée, assure-toi que le contenu soit pertinent et basé sur les informations fournies.
Si des informations manquent pour certaines sections, propose un contenu générique mais utile qui pourra être personnalisé ultérieurement.

Réponds uniquement avec le contenu Markdown du README, sans commentaire supplémentaire.
`, projectName, projectDescription, techStr, codeSection, strings.Join(includeSections, ", "))
}
