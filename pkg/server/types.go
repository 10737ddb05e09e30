package server

import (
	"time"
)

// Options configures the HTTP server
type Options struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	AllowedOrigins     []string
	ShutdownTimeout    time.Duration
}

// ReadmeRequest is the body of POST /readme/generate
type ReadmeRequest struct {
	ProjectName        string   `json:"project_name"`
	ProjectDescription string   `json:"project_description"`
	Technologies       []string `json:"technologies"`
	CodeSnippets       []string `json:"code_snippets"`
	IncludeSections    []string `json:"include_sections"`
}

// CodeRequest is the body of POST /code/improve
type CodeRequest struct {
	Code         string   `json:"code"`
	TaskType     string   `json:"task_type"` // correction, optimisation, refactoring, pep8, debug
	Requirements []string `json:"requirements"`
	Context      string   `json:"context"`
}

// DebugRequest is the body of POST /code/debug and POST /debug/analyze
type DebugRequest struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message,omitempty"`
	Context      string `json:"context,omitempty"`
}

// RAGRequest is the body of POST /rag/query
type RAGRequest struct {
	Query     string `json:"query"`
	IndexPath string `json:"index_path,omitempty"`
	Operation string `json:"operation,omitempty"` // query, process, save, load
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RateLimitState tracks request timestamps for one client IP
type RateLimitState struct {
	Requests []int64
}
