package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Create(path, 3, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAddAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Add(ctx, []IndexedChunk{
		{ID: "a", Content: "les pommes sont rouges", Source: "chunk_0", Position: 0, Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "le ciel est bleu", Source: "chunk_1", Position: 1, Embedding: []float32{0, 1, 0}},
		{ID: "c", Content: "l'herbe est verte", Source: "chunk_2", Position: 2, Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	matches, err := s.Search(ctx, []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ChunkID)
	assert.Equal(t, "les pommes sont rouges", matches[0].Content)
	assert.Equal(t, "chunk_0", matches[0].Source)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestStoreDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("add", func(t *testing.T) {
		err := s.Add(ctx, []IndexedChunk{{ID: "a", Content: "x", Embedding: []float32{1, 0}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})

	t.Run("search", func(t *testing.T) {
		_, err := s.Search(ctx, []float32{1, 0}, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension mismatch")
	})
}

func TestStoreCount(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Add(context.Background(), []IndexedChunk{
		{ID: "a", Content: "x", Position: 0, Embedding: []float32{1, 0, 0}},
	}))

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreSaveAndOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []IndexedChunk{
		{ID: "a", Content: "contenu sauvegardé", Source: "chunk_0", Position: 0, Embedding: []float32{1, 0, 0}},
	}))

	saved := filepath.Join(t.TempDir(), "saved", "index.db")
	require.NoError(t, s.SaveTo(saved))

	restored, err := Open(saved, 3, zerolog.Nop())
	require.NoError(t, err)
	defer restored.Close()

	n, err := restored.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matches, err := restored.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "contenu sauvegardé", matches[0].Content)
}

func TestStoreSaveToOverwrites(t *testing.T) {
	s := newTestStore(t)
	target := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, s.SaveTo(target))
	require.NoError(t, s.SaveTo(target))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"), 3, zerolog.Nop())
	require.Error(t, err)
}

func TestOpenInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	plain, err := Create(path, 3, zerolog.Nop())
	require.NoError(t, err)

	// Drop the chunk table to simulate a foreign SQLite file
	_, err = plain.db.Exec("DROP TABLE chunks")
	require.NoError(t, err)
	plain.Close()

	_, err = Open(path, 3, zerolog.Nop())
	require.Error(t, err)
}
