package config

// Config represents the main pyassist configuration
type Config struct {
	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// LLM backends
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// RAG / document Q&A
	RAG RAGConfig `json:"rag" mapstructure:"rag"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string   `json:"host" mapstructure:"host"`
	Port               int      `json:"port" mapstructure:"port"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	AllowedOrigins     []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// LLMConfig holds model backend configuration
type LLMConfig struct {
	Ollama      OllamaConfig    `json:"ollama" mapstructure:"ollama"`
	Groq        GroqConfig      `json:"groq" mapstructure:"groq"`
	Anthropic   AnthropicConfig `json:"anthropic" mapstructure:"anthropic"`
	Temperature float64         `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int             `json:"max_tokens" mapstructure:"max_tokens"`
}

// OllamaConfig holds local inference server settings
type OllamaConfig struct {
	Model   string `json:"model" mapstructure:"model"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
}

// GroqConfig holds Groq API settings
type GroqConfig struct {
	APIKey string `json:"api_key" mapstructure:"api_key"`
	Model  string `json:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings
type AnthropicConfig struct {
	APIKey string `json:"api_key" mapstructure:"api_key"`
	Model  string `json:"model" mapstructure:"model"`
}

// RAGConfig holds document Q&A configuration
type RAGConfig struct {
	EmbeddingProvider  string `json:"embedding_provider" mapstructure:"embedding_provider"` // ollama, openai
	EmbeddingModel     string `json:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension" mapstructure:"embedding_dimension"`
	OpenAIAPIKey       string `json:"openai_api_key" mapstructure:"openai_api_key"`
	TopK               int    `json:"top_k" mapstructure:"top_k"`
	ChunkSize          int    `json:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap       int    `json:"chunk_overlap" mapstructure:"chunk_overlap"`
	IndexPath          string `json:"index_path" mapstructure:"index_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			RateLimitPerMinute: 100,
			AllowedOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Ollama: OllamaConfig{
				Model:   "mistral",
				BaseURL: "http://localhost:11434",
			},
			Groq: GroqConfig{
				Model: "llama3-70b-8192",
			},
			Anthropic: AnthropicConfig{
				Model: "claude-3-5-sonnet-20241022",
			},
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		RAG: RAGConfig{
			EmbeddingProvider:  "ollama",
			EmbeddingModel:     "nomic-embed-text",
			EmbeddingDimension: 768,
			TopK:               4,
			ChunkSize:          1000,
			ChunkOverlap:       50,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}
