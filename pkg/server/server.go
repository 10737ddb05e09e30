// Package server exposes the orchestrator as a REST API.
//
// Every task endpoint is a 1:1 wrapper translating a validated request
// body into an orchestrator ProcessTask call, and a {success:false}
// envelope into an error response. The one exception is POST /code/debug,
// which calls the code assistant directly.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LeKyks/pyassist/internal/metrics"
	"github.com/LeKyks/pyassist/pkg/agent"
	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/LeKyks/pyassist/pkg/orchestrator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Version is the API version reported by the root endpoint
const Version = "1.0.0"

// Server is the REST API server
type Server struct {
	options       Options
	server        *http.Server
	orchestrator  *orchestrator.Orchestrator
	codeAssistant *agent.CodeAssistant
	connectors    []llm.Connector
	rateLimiter   *RateLimiter
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	startTime     time.Time

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// New creates the API server
func New(options Options, orch *orchestrator.Orchestrator, codeAssistant *agent.CodeAssistant, connectors []llm.Connector, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 100
	}
	if options.ShutdownTimeout == 0 {
		options.ShutdownTimeout = 10 * time.Second
	}

	if orch == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	return &Server{
		options:       options,
		orchestrator:  orch,
		codeAssistant: codeAssistant,
		connectors:    connectors,
		rateLimiter:   NewRateLimiter(options.RateLimitPerMinute),
		metrics:       m,
		logger:        logger,
		startTime:     time.Now(),
	}, nil
}

// Start runs the server until Stop is called
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down API server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.options.ShutdownTimeout):
		s.logger.Warn().Msg("Timed out waiting for in-flight requests")
	}

	s.rateLimiter.Stop()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler without starting the listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/agents", s.handleAgents)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/readme/generate", s.handleReadmeGenerate)
	mux.HandleFunc("/code/improve", s.handleCodeImprove)
	mux.HandleFunc("/code/debug", s.handleCodeDebug)
	mux.HandleFunc("/debug/analyze", s.handleDebugAnalyze)
	mux.HandleFunc("/rag/query", s.handleRAGQuery)
	mux.HandleFunc("/rag/process", s.handleRAGProcess)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return s.middleware(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// middleware applies CORS, shutdown gating, rate limiting, request
// tagging and metrics around the mux
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.shutdownMu.RLock()
		shuttingDown := s.isShuttingDown
		s.shutdownMu.RUnlock()
		if shuttingDown {
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}

		ip := clientIP(r)
		if !s.rateLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")

		if s.metrics != nil {
			s.metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).Inc()
		}
	})
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := ""
	for _, o := range s.options.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = o
			break
		}
	}
	if allowed == "" {
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// The header is a comma-separated hop list; the client is first
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
