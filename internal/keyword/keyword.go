// Package keyword provides the inverted-text fallback index over the chunk
// corpus, backed by Bleve.
package keyword

import "context"

// Result is a single keyword hit: a source location and the engine's own
// relevance score. The keyword channel returns locations, not content.
type Result struct {
	// ChunkID is the indexed chunk's identifier.
	ChunkID string
	// Source is the chunk's origin (file path or logical source name).
	Source string
	// Score is the engine's relevance score; higher is better.
	Score float64
}

// Searcher is the read side of the keyword index.
type Searcher interface {
	// Search parses query as free text (implicit OR over analyzed terms)
	// and returns up to limit hits ordered by descending score.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Close() error
}
