package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/LeKyks/pyassist/pkg/agent"
	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/LeKyks/pyassist/pkg/orchestrator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	response string
	err      error
	up       bool
	name     string
}

func (f *fakeConnector) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	return f.response, f.err
}

func (f *fakeConnector) CheckStatus(ctx context.Context) bool { return f.up }

func (f *fakeConnector) Name() string { return f.name }

type fakeAgent struct {
	name    string
	up      bool
	result  interface{}
	err     error
	lastReq agent.TaskRequest
}

func (f *fakeAgent) Process(ctx context.Context, data agent.TaskRequest) (interface{}, error) {
	f.lastReq = data
	return f.result, f.err
}

func (f *fakeAgent) CheckStatus(ctx context.Context) bool { return f.up }

func (f *fakeAgent) Info() agent.Info {
	return agent.Info{Name: f.name, Description: "agent de test"}
}

type serverFixture struct {
	server *Server
	orch   *orchestrator.Orchestrator
}

func newTestServer(t *testing.T, opts Options) *serverFixture {
	t.Helper()
	orch := orchestrator.New(orchestrator.Options{Logger: zerolog.Nop()})

	conn := &fakeConnector{response: "Rapport.\n```python\nx = 0\n```", up: true, name: "ollama"}
	codeAssistant := agent.NewCodeAssistant(conn, zerolog.Nop())

	srv, err := New(opts, orch, codeAssistant, []llm.Connector{conn}, nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { srv.rateLimiter.Stop() })

	return &serverFixture{server: srv, orch: orch}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRootEndpoint(t *testing.T) {
	f := newTestServer(t, Options{})
	f.orch.Register("readme", &fakeAgent{name: "ReadmeGenerator", up: true})
	handler := f.server.Handler()

	t.Run("banner", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Bienvenue sur l'API Agents Python Assistant", body["message"])
		assert.Equal(t, Version, body["version"])
		assert.Len(t, body["agents"], 1)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/unknown", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("request id header", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/", nil)

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestAgentsEndpoint(t *testing.T) {
	f := newTestServer(t, Options{})
	f.orch.Register("code", &fakeAgent{name: "CodeAssistant", up: true})
	f.orch.Register("readme", &fakeAgent{name: "ReadmeGenerator", up: true})

	rec := doJSON(t, f.server.Handler(), http.MethodGet, "/agents", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var agents []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agents))
	require.Len(t, agents, 2)
	assert.Equal(t, "code", agents[0]["id"])
	assert.Equal(t, "readme", agents[1]["id"])
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy when a backend is up", func(t *testing.T) {
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "healthy", body["status"])
		llmStatus := body["llm"].(map[string]interface{})
		assert.Equal(t, "available", llmStatus["ollama"])
	})

	t.Run("degraded when all backends are down", func(t *testing.T) {
		orch := orchestrator.New(orchestrator.Options{Logger: zerolog.Nop()})
		down := &fakeConnector{up: false, name: "ollama"}
		srv, err := New(Options{}, orch, nil, []llm.Connector{down}, nil, zerolog.Nop())
		require.NoError(t, err)
		defer srv.rateLimiter.Stop()

		rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)

		body := decodeJSON(t, rec)
		assert.Equal(t, "degraded", body["status"])
	})
}

func TestReadmeGenerateEndpoint(t *testing.T) {
	t.Run("returns the inner agent payload", func(t *testing.T) {
		f := newTestServer(t, Options{})
		readme := &fakeAgent{name: "ReadmeGenerator", up: true, result: agent.ReadmeResult{
			Content: "# Projet",
			Success: true,
			Message: "README généré avec succès pour le projet Projet",
		}}
		f.orch.Register("readme", readme)

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/readme/generate", map[string]interface{}{
			"project_name": "Projet",
			"technologies": []string{"Python"},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "# Projet", body["content"])
		// Inner payload only, no orchestrator envelope
		assert.NotContains(t, body, "result")
		assert.Equal(t, "Projet", readme.lastReq.String("project_name"))
		assert.Equal(t, []string{"Python"}, readme.lastReq.StringSlice("technologies"))
	})

	t.Run("unregistered agent is a 500 with detail", func(t *testing.T) {
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/readme/generate", map[string]interface{}{})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Agent non trouvé: readme", body["detail"])
	})

	t.Run("unavailable agent is a 500 with detail", func(t *testing.T) {
		f := newTestServer(t, Options{})
		f.orch.Register("readme", &fakeAgent{name: "ReadmeGenerator", up: false})

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/readme/generate", map[string]interface{}{})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Agent readme non disponible", body["detail"])
	})

	t.Run("invalid body", func(t *testing.T) {
		f := newTestServer(t, Options{})
		req := httptest.NewRequest(http.MethodPost, "/readme/generate", bytes.NewBufferString("{broken"))
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("GET is rejected", func(t *testing.T) {
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodGet, "/readme/generate", nil)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCodeImproveEndpoint(t *testing.T) {
	f := newTestServer(t, Options{})
	code := &fakeAgent{name: "CodeAssistant", up: true, result: agent.CodeResult{
		ImprovedCode: "x = 1",
		Explanation:  "Renommage.",
		Success:      true,
		Message:      "Code pep8 effectué avec succès",
	}}
	f.orch.Register("code", code)

	rec := doJSON(t, f.server.Handler(), http.MethodPost, "/code/improve", map[string]interface{}{
		"code":      "X=1",
		"task_type": "pep8",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "x = 1", body["improved_code"])
	assert.Equal(t, "pep8", code.lastReq.String("task_type"))
}

func TestCodeImproveMissingCode(t *testing.T) {
	// The dispatch succeeds; the rejection lives inside the agent payload
	f := newTestServer(t, Options{})
	conn := &fakeConnector{up: true}
	f.orch.Register("code", agent.NewCodeAssistant(conn, zerolog.Nop()))

	rec := doJSON(t, f.server.Handler(), http.MethodPost, "/code/improve", map[string]interface{}{
		"code": "",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Erreur: code manquant", body["message"])
}

func TestCodeDebugEndpoint(t *testing.T) {
	t.Run("bypasses the orchestrator", func(t *testing.T) {
		// No code agent is registered; the direct path must still answer
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/code/debug", map[string]interface{}{
			"code":          "x = 1 / 0",
			"error_message": "ZeroDivisionError",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Rapport.", body["debug_report"])
		assert.Equal(t, "x = 0", body["fixed_code"])
		assert.Equal(t, true, body["success"])
	})

	t.Run("missing code is a 500", func(t *testing.T) {
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/code/debug", map[string]interface{}{})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Aucun code fourni à déboguer", body["detail"])
	})
}

func TestDebugAnalyzeEndpoint(t *testing.T) {
	f := newTestServer(t, Options{})
	debug := &fakeAgent{name: "DebugAssistant", up: true, result: agent.DebugResult{
		DebugReport: "Analyse détaillée.",
		Success:     true,
		Message:     "Rapport de debug généré avec succès",
	}}
	f.orch.Register("debug", debug)

	rec := doJSON(t, f.server.Handler(), http.MethodPost, "/debug/analyze", map[string]interface{}{
		"code":          "for i in range(10): print(i)",
		"error_message": "",
		"context":       "boucle de test",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "Analyse détaillée.", body["debug_report"])
	assert.Equal(t, "boucle de test", debug.lastReq.String("context"))
}

func TestRAGQueryEndpoint(t *testing.T) {
	t.Run("returns the whole envelope", func(t *testing.T) {
		f := newTestServer(t, Options{})
		answer := "Réponse du document."
		rag := &fakeAgent{name: "RAGAgent", up: true, result: agent.QueryResult{
			Success: true,
			Message: "Query processed successfully",
			Answer:  &answer,
		}}
		f.orch.Register("rag", rag)

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/rag/query", map[string]interface{}{
			"query": "De quoi parle le document?",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Tâche traitée par rag", body["message"])
		inner := body["result"].(map[string]interface{})
		assert.Equal(t, "Réponse du document.", inner["answer"])
		assert.Equal(t, "De quoi parle le document?", rag.lastReq.String("query"))
	})

	t.Run("save operation is forwarded", func(t *testing.T) {
		f := newTestServer(t, Options{})
		rag := &fakeAgent{name: "RAGAgent", up: true, result: agent.OpResult{Success: true}}
		f.orch.Register("rag", rag)

		doJSON(t, f.server.Handler(), http.MethodPost, "/rag/query", map[string]interface{}{
			"operation":  "save",
			"index_path": "/tmp/out.db",
		})

		assert.Equal(t, "save", rag.lastReq.String("operation"))
		assert.Equal(t, "/tmp/out.db", rag.lastReq.String("index_path"))
	})
}

func TestRAGProcessEndpoint(t *testing.T) {
	t.Run("uploads through a temp file", func(t *testing.T) {
		f := newTestServer(t, Options{})
		rag := &fakeAgent{name: "RAGAgent", up: true, result: agent.ProcessResult{
			Success: true,
			Message: "Document processed successfully: 1 chunks created",
		}}
		f.orch.Register("rag", rag)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		fmt.Fprint(fw, "contenu du document")
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/rag/process", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "process", rag.lastReq.String("operation"))

		// The temp file is cleaned up after processing
		tmpPath := rag.lastReq.String("file_path")
		require.NotEmpty(t, tmpPath)
		_, statErr := os.Stat(tmpPath)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing file part", func(t *testing.T) {
		f := newTestServer(t, Options{})

		rec := doJSON(t, f.server.Handler(), http.MethodPost, "/rag/process", map[string]interface{}{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRateLimiting(t *testing.T) {
	f := newTestServer(t, Options{RateLimitPerMinute: 2})
	handler := f.server.Handler()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, handler, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Run("wildcard origin", func(t *testing.T) {
		f := newTestServer(t, Options{AllowedOrigins: []string{"*"}})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		f := newTestServer(t, Options{AllowedOrigins: []string{"*"}})

		req := httptest.NewRequest(http.MethodOptions, "/readme/generate", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		f := newTestServer(t, Options{AllowedOrigins: []string{"http://allowed.example"}})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://other.example")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientIP(t *testing.T) {
	t.Run("remote address", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:4242"

		assert.Equal(t, "192.0.2.10", clientIP(req))
	})

	t.Run("forwarded single hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")

		assert.Equal(t, "203.0.113.7", clientIP(req))
	})

	t.Run("forwarded hop list keeps the first entry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.1, 10.0.0.1")

		assert.Equal(t, "203.0.113.7", clientIP(req))
	})
}

func TestShutdownGate(t *testing.T) {
	f := newTestServer(t, Options{})
	f.server.shutdownMu.Lock()
	f.server.isShuttingDown = true
	f.server.shutdownMu.Unlock()

	rec := doJSON(t, f.server.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
