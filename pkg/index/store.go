package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

func init() {
	// Auto-register sqlite-vec extension
	sqlite_vec.Auto()
}

// IndexedChunk is one chunk plus its embedding, ready for insertion
type IndexedChunk struct {
	ID        string
	Content   string
	Source    string
	Position  int
	Embedding []float32
}

// Match is one similarity-search hit
type Match struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Store is a file-backed vector index
type Store struct {
	db     *sql.DB
	path   string
	dim    int
	logger zerolog.Logger
}

// Create opens a fresh store at path, discarding any previous index file
func Create(path string, dim int, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to reset index file: %w", err)
	}

	s, err := open(path, dim, logger)
	if err != nil {
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return s, nil
}

// Open opens an existing store at path
func Open(path string, dim int, logger zerolog.Logger) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index file not readable: %w", err)
	}

	s, err := open(path, dim, logger)
	if err != nil {
		return nil, err
	}

	// A saved index must already carry the chunk table
	var n int
	if err := s.db.QueryRow("SELECT count(*) FROM chunks").Scan(&n); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("not a valid index file: %w", err)
	}

	logger.Info().Str("path", path).Int("chunks", n).Msg("Index loaded")
	return s, nil
}

func open(path string, dim int, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{db: db, path: path, dim: dim, logger: logger}, nil
}

func (s *Store) initSchema() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			source TEXT,
			position INTEGER NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS embeddings USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.dim)

	_, err := s.db.Exec(schema)
	return err
}

// Add inserts chunks and their embeddings in one transaction
func (s *Store) Add(ctx context.Context, chunks []IndexedChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(c.Embedding), s.dim)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO chunks (id, content, source, position) VALUES (?, ?, ?, ?)",
			c.ID, c.Content, c.Source, c.Position,
		); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}

		embeddingJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO embeddings (chunk_id, embedding) VALUES (?, ?)",
			c.ID, string(embeddingJSON),
		); err != nil {
			return fmt.Errorf("failed to insert embedding: %w", err)
		}
	}

	return tx.Commit()
}

// Search returns the k chunks nearest to the query embedding
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]Match, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("query embedding dimension mismatch: got %d, want %d", len(embedding), s.dim)
	}
	if k <= 0 {
		k = 4
	}

	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query embedding: %w", err)
	}

	query := `
		SELECT c.id, c.content, c.source,
			vec_distance_cosine(e.embedding, ?) AS distance
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		ORDER BY distance ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, string(embeddingJSON), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var distance float64
		if err := rows.Scan(&m.ChunkID, &m.Content, &m.Source, &distance); err != nil {
			return nil, err
		}
		m.Score = 1.0 - distance
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// Count returns the number of indexed chunks
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT count(*) FROM chunks").Scan(&n)
	return n, err
}

// SaveTo persists a snapshot of the index to path. The format is plain
// SQLite, written with VACUUM INTO.
func (s *Store) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	// VACUUM INTO refuses to overwrite
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace existing index file: %w", err)
	}

	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Index saved")
	return nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
