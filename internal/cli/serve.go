package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeKyks/pyassist/internal/config"
	"github.com/LeKyks/pyassist/internal/logger"
	"github.com/LeKyks/pyassist/internal/metrics"
	"github.com/LeKyks/pyassist/pkg/agent"
	"github.com/LeKyks/pyassist/pkg/document"
	"github.com/LeKyks/pyassist/pkg/index"
	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/LeKyks/pyassist/pkg/orchestrator"
	"github.com/LeKyks/pyassist/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agent API server",
	Long: `Start the REST API server in the foreground.
The server registers the readme, code, debug and rag agents and serves
requests until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	m := metrics.New()

	ollama := llm.NewOllamaConnector(llm.OllamaOptions{
		Model:   cfg.LLM.Ollama.Model,
		BaseURL: cfg.LLM.Ollama.BaseURL,
		Logger:  log.With().Str("component", "ollama").Logger(),
	})

	connectors := []llm.Connector{ollama}

	// Cloud backends are optional; they join the health report only when
	// an API key is configured.
	var groq *llm.GroqConnector
	if cfg.LLM.Groq.APIKey != "" {
		groq = llm.NewGroqConnector(llm.GroqOptions{
			APIKey: cfg.LLM.Groq.APIKey,
			Model:  cfg.LLM.Groq.Model,
			Logger: log.With().Str("component", "groq").Logger(),
		})
		connectors = append(connectors, groq)
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		connectors = append(connectors, llm.NewAnthropicConnector(llm.AnthropicOptions{
			APIKey: cfg.LLM.Anthropic.APIKey,
			Model:  cfg.LLM.Anthropic.Model,
			Logger: log.With().Str("component", "anthropic").Logger(),
		}))
	}

	var embedder index.EmbeddingProvider
	switch cfg.RAG.EmbeddingProvider {
	case "openai":
		embedder = index.NewOpenAIEmbedder(cfg.RAG.OpenAIAPIKey, cfg.RAG.EmbeddingModel)
	default:
		embedder = index.NewOllamaEmbedder(cfg.RAG.EmbeddingModel, cfg.LLM.Ollama.BaseURL, cfg.RAG.EmbeddingDimension)
	}

	processor := document.NewProcessor(document.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		Logger:       log.With().Str("component", "document").Logger(),
	})

	// The RAG agent prefers the hosted backend when one is configured,
	// the local agents always run on Ollama.
	var ragConnector llm.Connector = ollama
	if groq != nil {
		ragConnector = groq
	}

	orch := orchestrator.New(orchestrator.Options{
		Logger:  log.With().Str("component", "orchestrator").Logger(),
		Metrics: m,
	})

	agentLog := log.With().Str("component", "agent").Logger()
	codeAssistant := agent.NewCodeAssistant(ollama, agentLog)

	orch.Register("readme", agent.NewReadmeGenerator(ollama, agentLog))
	orch.Register("code", codeAssistant)
	orch.Register("debug", agent.NewDebugAssistant(ollama, agentLog))
	orch.Register("rag", agent.NewRAGAgent(agent.RAGOptions{
		Connector:   ragConnector,
		Embedder:    embedder,
		Processor:   processor,
		IndexPath:   cfg.RAG.IndexPath,
		TopK:        cfg.RAG.TopK,
		Logger:      agentLog,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}))

	srv, err := server.New(server.Options{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
	}, orch, codeAssistant, connectors, m, log.With().Str("component", "server").Logger())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
