// Package retrieve composes the vector store with the keyword fallback
// channel into a single ranked retrieval operation.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/embedding"
	"github.com/hyperjump/bunko/internal/keyword"
	"github.com/hyperjump/bunko/internal/models"
)

// ErrUnsupportedQuery means retrieval was requested for something that is not
// a text query (blank or whitespace-only input).
var ErrUnsupportedQuery = errors.New("unsupported query type: text query required")

// DefaultTopK is the number of hits returned when the caller asks for none.
const DefaultTopK = 5

// VectorSearcher is the dense channel consumed by the Retriever.
type VectorSearcher interface {
	Search(query []float32, k int) ([]*models.Chunk, []float64, error)
}

// Retriever turns a text query into a ranked hit list, padding with the
// keyword channel when the dense channel underdelivers.
type Retriever struct {
	embedder embedding.Embedder
	store    VectorSearcher
	keyword  keyword.Searcher // nil when no keyword index is configured
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithKeywordIndex attaches the keyword fallback channel.
func WithKeywordIndex(idx keyword.Searcher) Option {
	return func(r *Retriever) { r.keyword = idx }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a Retriever over the given embedder and vector store.
func New(embedder embedding.Embedder, store VectorSearcher, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns up to topK hits for the query. Dense hits come first in
// ascending distance order. When fallback is enabled, a keyword index is
// configured, and the dense channel returned fewer than topK hits, keyword
// hits fill the remainder in descending score order. The two channels are
// not deduplicated against each other: a chunk indexed in both may appear
// once per channel.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, fallback bool) ([]models.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrUnsupportedQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	chunks, distances, err := r.store.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	hits := make([]models.Hit, 0, topK)
	for i, ch := range chunks {
		hits = append(hits, models.VectorHit(ch, distances[i]))
	}

	if fallback && r.keyword != nil && len(hits) < topK {
		needed := topK - len(hits)
		kwResults, err := r.keyword.Search(ctx, query, needed)
		if err != nil {
			return nil, fmt.Errorf("keyword fallback: %w", err)
		}
		if r.logger != nil {
			r.logger.Debug("keyword fallback",
				zap.Int("primary_hits", len(hits)),
				zap.Int("fallback_hits", len(kwResults)),
			)
		}
		for _, kr := range kwResults {
			hits = append(hits, models.KeywordHit(kr.Source, kr.Score))
		}
	}
	return hits, nil
}
