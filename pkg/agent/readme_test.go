package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadmeGeneratorProcess(t *testing.T) {
	t.Run("successful generation", func(t *testing.T) {
		conn := &stubConnector{response: "# MonProjet\n\nUn projet de démonstration."}
		a := NewReadmeGenerator(conn, zerolog.Nop())

		result, err := a.Process(context.Background(), TaskRequest{
			"project_name":        "MonProjet",
			"project_description": "Un projet de démonstration",
			"technologies":        []interface{}{"Python", "FastAPI"},
		})

		require.NoError(t, err)
		payload := result.(ReadmeResult)
		assert.True(t, payload.Success)
		assert.Equal(t, "# MonProjet\n\nUn projet de démonstration.", payload.Content)
		assert.Equal(t, "README généré avec succès pour le projet MonProjet", payload.Message)
		assert.Contains(t, conn.lastPrompt, "- Python")
		assert.Contains(t, conn.lastPrompt, "- FastAPI")
	})

	t.Run("default sections when none requested", func(t *testing.T) {
		conn := &stubConnector{response: "# P"}
		a := NewReadmeGenerator(conn, zerolog.Nop())

		_, err := a.Process(context.Background(), TaskRequest{"project_name": "P"})

		require.NoError(t, err)
		assert.Contains(t, conn.lastPrompt, "Introduction, Installation, Utilisation")
		assert.Contains(t, conn.lastPrompt, "Non spécifié")
	})

	t.Run("explicit sections override defaults", func(t *testing.T) {
		conn := &stubConnector{response: "# P"}
		a := NewReadmeGenerator(conn, zerolog.Nop())

		_, err := a.Process(context.Background(), TaskRequest{
			"project_name":     "P",
			"include_sections": []interface{}{"Installation", "FAQ"},
		})

		require.NoError(t, err)
		assert.Contains(t, conn.lastPrompt, "Installation, FAQ")
		assert.NotContains(t, conn.lastPrompt, "Structure du projet")
	})

	t.Run("code snippets included", func(t *testing.T) {
		conn := &stubConnector{response: "# P"}
		a := NewReadmeGenerator(conn, zerolog.Nop())

		_, err := a.Process(context.Background(), TaskRequest{
			"project_name":  "P",
			"code_snippets": []interface{}{"def main():\n    pass"},
		})

		require.NoError(t, err)
		assert.Contains(t, conn.lastPrompt, "Extrait 1:")
		assert.Contains(t, conn.lastPrompt, "def main():")
	})

	t.Run("backend failure", func(t *testing.T) {
		a := NewReadmeGenerator(&stubConnector{err: errors.New("model not loaded")}, zerolog.Nop())

		result, err := a.Process(context.Background(), TaskRequest{"project_name": "P"})

		require.NoError(t, err)
		payload := result.(ReadmeResult)
		assert.False(t, payload.Success)
		assert.Contains(t, payload.Message, "model not loaded")
	})
}
