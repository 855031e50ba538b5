// Package embedding provides text embedding via the OpenAI API with
// exact-string memoization.
package embedding

import "context"

// Embedder produces fixed-dimension vector embeddings for text.
// EmbedBatch preserves input order: output i is the embedding of input i.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
