package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/LeKyks/pyassist/pkg/document"
	"github.com/LeKyks/pyassist/pkg/index"
	"github.com/LeKyks/pyassist/pkg/llm"
	"github.com/rs/zerolog"
)

// DocumentProcessor converts a file into ordered text chunks plus image
// metadata
type DocumentProcessor interface {
	Process(path string) (*document.Document, error)
}

// IndexStore is the slice of the vector index the RAG agent needs
type IndexStore interface {
	Add(ctx context.Context, chunks []index.IndexedChunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]index.Match, error)
	SaveTo(path string) error
	Count() (int, error)
	Close() error
}

// RAGAgent answers questions about a processed document using
// retrieval-augmented generation
type RAGAgent struct {
	base

	embedder   index.EmbeddingProvider
	processor  DocumentProcessor
	indexPath  string
	topK       int
	generation llm.GenerateOptions

	createStore func(path string, dim int, logger zerolog.Logger) (IndexStore, error)
	openStore   func(path string, dim int, logger zerolog.Logger) (IndexStore, error)

	// Current index; swapped on process/load without locking, matching
	// the single-index semantics of the original service.
	store IndexStore
}

// RAGOptions configures the RAG agent
type RAGOptions struct {
	Connector llm.Connector
	Embedder  index.EmbeddingProvider
	Processor DocumentProcessor
	IndexPath string // working index file built by ProcessDocument
	TopK      int
	Logger    zerolog.Logger

	// Generation parameters for answering queries; zero values fall back
	// to llm.DefaultOptions
	Temperature float64
	MaxTokens   int

	// Store factories, overridable in tests
	CreateStore func(path string, dim int, logger zerolog.Logger) (IndexStore, error)
	OpenStore   func(path string, dim int, logger zerolog.Logger) (IndexStore, error)
}

// DocumentInfo summarizes one processed document
type DocumentInfo struct {
	Chunks int `json:"chunks"`
	Images int `json:"images"`
}

// ProcessResult is the payload for a document-processing operation
type ProcessResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	DocumentInfo *DocumentInfo `json:"document_info"`
}

// OpResult is the payload for a save/load operation
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SourceChunk is one retrieved chunk referenced by an answer
type SourceChunk struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// QueryResult is the payload for a question
type QueryResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Answer  *string       `json:"answer"`
	Sources []SourceChunk `json:"sources,omitempty"`
}

// NewRAGAgent creates the document Q&A agent
func NewRAGAgent(opts RAGOptions) *RAGAgent {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.IndexPath == "" {
		opts.IndexPath = "rag-index.db"
	}
	generation := llm.DefaultOptions()
	if opts.Temperature > 0 {
		generation.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		generation.MaxTokens = opts.MaxTokens
	}
	createStore := opts.CreateStore
	if createStore == nil {
		createStore = func(path string, dim int, logger zerolog.Logger) (IndexStore, error) {
			return index.Create(path, dim, logger)
		}
	}
	openStore := opts.OpenStore
	if openStore == nil {
		openStore = func(path string, dim int, logger zerolog.Logger) (IndexStore, error) {
			return index.Open(path, dim, logger)
		}
	}

	return &RAGAgent{
		base: base{
			connector: opts.Connector,
			logger:    opts.Logger,
			info: Info{
				Name:        "RAGAgent",
				Description: "Agent for document Q&A using Retrieval-Augmented Generation",
			},
		},
		embedder:    opts.Embedder,
		processor:   opts.Processor,
		indexPath:   opts.IndexPath,
		topK:        opts.TopK,
		generation:  generation,
		createStore: createStore,
		openStore:   openStore,
	}
}

// Process dispatches on the operation discriminator: "process", "save",
// "load", anything else is a query
func (a *RAGAgent) Process(ctx context.Context, data TaskRequest) (interface{}, error) {
	operation := data.String("operation")
	if operation == "" {
		operation = "query"
	}

	if operation == "process" && data.String("file_path") != "" {
		return a.ProcessDocument(ctx, data.String("file_path")), nil
	}
	if operation == "save" && data.String("index_path") != "" {
		return a.SaveIndex(data.String("index_path")), nil
	}
	if operation == "load" && data.String("index_path") != "" {
		return a.LoadIndex(data.String("index_path")), nil
	}

	return a.query(ctx, data.String("query")), nil
}

// ProcessDocument builds a fresh retrieval index from the document at path
func (a *RAGAgent) ProcessDocument(ctx context.Context, path string) ProcessResult {
	doc, err := a.processor.Process(path)
	if err != nil {
		a.logger.Error().Err(err).Str("path", path).Msg("Error processing document")
		return ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing document: %v", err),
		}
	}

	texts := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		texts[i] = c.Content
	}

	embeddings, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error embedding document chunks")
		return ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing document: %v", err),
		}
	}

	store, err := a.createStore(a.indexPath, a.embedder.Dimension(), a.logger)
	if err != nil {
		return ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing document: %v", err),
		}
	}

	indexed := make([]index.IndexedChunk, len(doc.Chunks))
	for i, c := range doc.Chunks {
		indexed[i] = index.IndexedChunk{
			ID:        c.ID,
			Content:   c.Content,
			Source:    fmt.Sprintf("chunk_%d", c.Position),
			Position:  c.Position,
			Embedding: embeddings[i],
		}
	}

	if err := store.Add(ctx, indexed); err != nil {
		store.Close()
		return ProcessResult{
			Success: false,
			Message: fmt.Sprintf("Error processing document: %v", err),
		}
	}

	if a.store != nil {
		a.store.Close()
	}
	a.store = store

	return ProcessResult{
		Success: true,
		Message: fmt.Sprintf("Document processed successfully: %d chunks created", len(doc.Chunks)),
		DocumentInfo: &DocumentInfo{
			Chunks: len(doc.Chunks),
			Images: len(doc.Images),
		},
	}
}

// SaveIndex persists the current index to path
func (a *RAGAgent) SaveIndex(path string) OpResult {
	if a.store == nil {
		return OpResult{
			Success: false,
			Message: "No index to save. Process a document first.",
		}
	}

	if err := a.store.SaveTo(path); err != nil {
		a.logger.Error().Err(err).Msg("Error saving index")
		return OpResult{
			Success: false,
			Message: fmt.Sprintf("Error saving index: %v", err),
		}
	}

	return OpResult{
		Success: true,
		Message: fmt.Sprintf("Index saved successfully to %s", path),
	}
}

// LoadIndex restores a previously saved index from path
func (a *RAGAgent) LoadIndex(path string) OpResult {
	store, err := a.openStore(path, a.embedder.Dimension(), a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error loading index")
		return OpResult{
			Success: false,
			Message: fmt.Sprintf("Error loading index: %v", err),
		}
	}

	if a.store != nil {
		a.store.Close()
	}
	a.store = store

	return OpResult{
		Success: true,
		Message: fmt.Sprintf("Index loaded successfully from %s", path),
	}
}

func (a *RAGAgent) query(ctx context.Context, query string) QueryResult {
	if query == "" {
		return QueryResult{
			Success: false,
			Message: "No query provided",
		}
	}

	if a.store == nil {
		return QueryResult{
			Success: false,
			Message: "No document has been processed. Process a document first.",
		}
	}

	queryEmbedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error embedding query")
		return QueryResult{
			Success: false,
			Message: fmt.Sprintf("Error processing query: %v", err),
		}
	}

	matches, err := a.store.Search(ctx, queryEmbedding, a.topK)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error searching index")
		return QueryResult{
			Success: false,
			Message: fmt.Sprintf("Error processing query: %v", err),
		}
	}

	prompt := buildRAGPrompt(matches, query)

	answer, err := a.connector.Generate(ctx, prompt, a.generation)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error processing RAG query")
		return QueryResult{
			Success: false,
			Message: fmt.Sprintf("Error processing query: %v", err),
		}
	}

	sources := make([]SourceChunk, len(matches))
	for i, m := range matches {
		content := m.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		sources[i] = SourceChunk{Source: m.Source, Content: content}
	}

	return QueryResult{
		Success: true,
		Message: "Query processed successfully",
		Answer:  &answer,
		Sources: sources,
	}
}

func buildRAGPrompt(matches []index.Match, question string) string {
	contexts := make([]string, len(matches))
	for i, m := range matches {
		contexts[i] = m.Content
	}

	return fmt.Sprintf(`Tu es un assistant spécialisé en traitement de documents et NLP.
Utilise uniquement les informations contextuelles ci-dessous pour répondre à la question.
Si les informations ne sont pas suffisantes, dis simplement que tu ne sais pas.

Informations contextuelles:
%s

Question: %s

Ta réponse (sois précis et détaillé):
`, strings.Join(contexts, "\n\n"), question)
}
