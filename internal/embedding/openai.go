package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"
	// requestBatchSize is the number of texts sent per API request.
	requestBatchSize = 16
	// maxInflightBatches bounds concurrent embedding requests.
	maxInflightBatches = 4
)

// ErrAPIKeyNotSet means no OpenAI API key was provided.
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

// OpenAIEmbedder embeds text through the OpenAI embeddings API. Results are
// memoized by exact input string in an LRU cache, so re-embedding unchanged
// chunks costs nothing. Failures from the API are propagated to the caller;
// no retry or degradation happens at this layer.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
	cache      *Cache
}

// NewOpenAIEmbedder creates an embedder for the given model and
// dimensionality, with a cache of cacheSize entries.
func NewOpenAIEmbedder(apiKey, model string, dimensions, cacheSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}
	if cacheSize <= 0 {
		cacheSize = 10000
	}
	return &OpenAIEmbedder{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:      model,
		dimensions: dimensions,
		cache:      NewCache(cacheSize),
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts, serving cached entries and requesting the rest in
// parallel batches of up to 16. Output order matches input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	var misses []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			embeddings[i] = vec
			continue
		}
		misses = append(misses, text)
		missIdx = append(missIdx, i)
	}
	if len(misses) == 0 {
		return embeddings, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflightBatches)
	for start := 0; start < len(misses); start += requestBatchSize {
		end := start + requestBatchSize
		if end > len(misses) {
			end = len(misses)
		}
		batch := misses[start:end]
		idx := missIdx[start:end]
		g.Go(func() error {
			vectors, err := e.request(gctx, batch)
			if err != nil {
				return err
			}
			for j, vec := range vectors {
				embeddings[idx[j]] = vec
				e.cache.Set(batch[j], vec)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// request embeds one batch through the API.
func (e *OpenAIEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings request: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the configured embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// ClearCache empties the memoization cache.
func (e *OpenAIEmbedder) ClearCache() {
	e.cache.Clear()
}

// Close is a no-op; the HTTP client owns no persistent resources.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
