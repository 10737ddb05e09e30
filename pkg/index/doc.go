// Package index provides the similarity-search index behind the document
// Q&A agent, backed by SQLite with the sqlite-vec extension.
//
// Invariants:
// - Every chunk row has exactly one embedding row with the store dimension.
// - The on-disk format is owned by SQLite/sqlite-vec; Save/Open move whole
//   database files, never individual records.
//
// Usage:
//
//	store, _ := index.Create("/data/rag/index.db", 768, logger)
//	defer store.Close()
//	_ = store.Add(ctx, chunks)
//	matches, _ := store.Search(ctx, queryEmbedding, 4)
//	_ = matches
package index
