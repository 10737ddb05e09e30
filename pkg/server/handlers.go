package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/LeKyks/pyassist/pkg/agent"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// handleRoot serves the API banner
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Bienvenue sur l'API Agents Python Assistant",
		"version": Version,
		"agents":  s.orchestrator.List(),
	})
}

// handleAgents lists all registered agents
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.orchestrator.List())
}

// handleHealth reports connector availability and the agent list
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	backends := make(map[string]string, len(s.connectors))
	anyUp := false
	for _, c := range s.connectors {
		status := "unavailable"
		if c.CheckStatus(ctx) {
			status = "available"
			anyUp = true
		}
		backends[c.Name()] = status
		if s.metrics != nil {
			s.metrics.BackendChecksTotal.WithLabelValues(c.Name(), status).Inc()
		}
	}

	overall := "degraded"
	if anyUp {
		overall = "healthy"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": overall,
		"uptime": time.Since(s.startTime).String(),
		"llm":    backends,
		"agents": s.orchestrator.List(),
	})
}

// dispatchTask routes a request through the orchestrator and translates
// a failure envelope into an error response. When unwrap is true only the
// inner agent payload is returned, otherwise the whole envelope.
func (s *Server) dispatchTask(w http.ResponseWriter, r *http.Request, agentID string, data agent.TaskRequest, unwrap bool) {
	result := s.orchestrator.ProcessTask(r.Context(), agentID, data)

	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Message)
		return
	}

	if unwrap {
		writeJSON(w, http.StatusOK, result.Result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleReadmeGenerate generates a full Markdown README for a project
func (s *Server) handleReadmeGenerate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req ReadmeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.dispatchTask(w, r, "readme", agent.TaskRequest{
		"project_name":        req.ProjectName,
		"project_description": req.ProjectDescription,
		"technologies":        req.Technologies,
		"code_snippets":       req.CodeSnippets,
		"include_sections":    req.IncludeSections,
	}, true)
}

// handleCodeImprove improves Python code according to the requested task type
func (s *Server) handleCodeImprove(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req CodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.dispatchTask(w, r, "code", agent.TaskRequest{
		"code":         req.Code,
		"task_type":    req.TaskType,
		"requirements": req.Requirements,
		"context":      req.Context,
	}, true)
}

// handleCodeDebug generates a debug report through the code assistant.
// This calls the agent directly, skipping the orchestrator and its
// liveness check; the behavior is inherited and deliberately untouched.
func (s *Server) handleCodeDebug(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if s.codeAssistant == nil {
		writeError(w, http.StatusServiceUnavailable, "code assistant not configured")
		return
	}
	var req DebugRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result := s.codeAssistant.GenerateDebugReport(r.Context(), req.Code, req.ErrorMessage)
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.Message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDebugAnalyze produces a detailed debug report via the debug agent
func (s *Server) handleDebugAnalyze(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req DebugRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.dispatchTask(w, r, "debug", agent.TaskRequest{
		"code":          req.Code,
		"error_message": req.ErrorMessage,
		"context":       req.Context,
	}, true)
}

// handleRAGQuery answers a question about the processed document
func (s *Server) handleRAGQuery(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req RAGRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.dispatchTask(w, r, "rag", agent.TaskRequest{
		"query":      req.Query,
		"index_path": req.IndexPath,
		"operation":  req.Operation,
	}, false)
}

// handleRAGProcess ingests an uploaded document into the retrieval index
func (s *Server) handleRAGProcess(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file upload: %v", err))
		return
	}
	defer file.Close()

	tmpPath := filepath.Join(os.TempDir(), "pyassist_upload_"+filepath.Base(header.Filename))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store upload: %v", err))
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store upload: %v", err))
		return
	}
	tmp.Close()
	defer os.Remove(tmpPath)

	s.dispatchTask(w, r, "rag", agent.TaskRequest{
		"operation": "process",
		"file_path": tmpPath,
	}, false)
}
