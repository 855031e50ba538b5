package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/bunko/internal/models"
)

// Sentinel errors for add-time validation. Both are raised before any
// in-memory or on-disk mutation.
var (
	// ErrMissingEmbedding means a chunk submitted for indexing has no vector.
	ErrMissingEmbedding = errors.New("chunk missing embedding")
	// ErrDimensionMismatch means a vector's length disagrees with the
	// established index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Store is a durable nearest-neighbor store over chunk records. It pairs a
// flat L2 index with a parallel, insertion-ordered metadata list; row i of
// the index corresponds to metadata entry i. Both are persisted together on
// every successful add: the index to a binary file, the metadata to a JSON
// file. The two files form a single logical unit.
//
// Rows are append-only; the only destructive operation is Reset, which
// removes both files and empties the in-memory state.
type Store struct {
	indexPath string
	metaPath  string
	dims      int // 0 until fixed by option or first accepted batch
	index     *FlatIndex
	metadata  []*models.Chunk
	mu        sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDimensions pins the store's dimensionality up front instead of
// inferring it from the first added batch.
func WithDimensions(dims int) StoreOption {
	return func(s *Store) { s.dims = dims }
}

// Open loads a store from indexPath and metaPath. When both files exist they
// are deserialized; otherwise the store starts empty, which is not an error.
func Open(indexPath, metaPath string, opts ...StoreOption) (*Store, error) {
	s := &Store{indexPath: indexPath, metaPath: metaPath}
	for _, opt := range opts {
		opt(s)
	}
	if !fileExists(indexPath) || !fileExists(metaPath) {
		return s, nil
	}
	idx, err := OpenFlatIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	var metadata []*models.Chunk
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if s.dims != 0 && s.dims != idx.Dims() {
		return nil, fmt.Errorf("%w: store configured for %d dimensions, index file has %d",
			ErrDimensionMismatch, s.dims, idx.Dims())
	}
	s.index = idx
	s.dims = idx.Dims()
	s.metadata = metadata
	return s, nil
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.metadata)
}

// Dims returns the established dimensionality, or 0 when the store has never
// been written to and no dimension was configured.
func (s *Store) Dims() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dims
}

// AddChunks indexes a batch of chunks. The whole batch is validated first:
// every chunk must carry an embedding (ErrMissingEmbedding) of the store's
// dimensionality (ErrDimensionMismatch). A validation failure leaves both
// in-memory state and the persisted files untouched. On success the vectors
// and metadata are appended and both files are written before returning.
// An empty batch is a no-op.
func (s *Store) AddChunks(chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dims := s.dims
	for i, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d (%s)", ErrMissingEmbedding, i, ch.ID())
		}
		if dims == 0 {
			dims = len(ch.Embedding)
			continue
		}
		if len(ch.Embedding) != dims {
			return fmt.Errorf("%w: chunk %d (%s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, ch.ID(), len(ch.Embedding), dims)
		}
	}

	if s.index == nil {
		idx, err := NewFlatIndex(dims)
		if err != nil {
			return err
		}
		s.index = idx
		s.dims = dims
	}
	vectors := make([][]float32, len(chunks))
	for i, ch := range chunks {
		vectors[i] = ch.Embedding
	}
	if err := s.index.Add(vectors); err != nil {
		return err
	}
	s.metadata = append(s.metadata, chunks...)
	return s.persist()
}

// Search returns up to k chunks nearest to query under squared L2 distance,
// nearest first, paired with their raw distances. Returned chunks are
// reconstructed copies with the embedding stripped. A store that has never
// been written to returns empty results. Rows outside the metadata range are
// skipped rather than failing the search.
func (s *Store) Search(query []float32, k int) ([]*models.Chunk, []float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil, nil, nil
	}
	rows, dists, err := s.index.Search(query, k)
	if err != nil {
		return nil, nil, err
	}
	chunks := make([]*models.Chunk, 0, len(rows))
	distances := make([]float64, 0, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(s.metadata) {
			continue
		}
		src := s.metadata[row]
		chunks = append(chunks, &models.Chunk{
			Content:  src.Content,
			Metadata: src.CloneMetadata(),
		})
		distances = append(distances, dists[i])
	}
	return chunks, distances, nil
}

// Reset removes both persisted files if present and empties the in-memory
// state. Idempotent.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range []string{s.indexPath, s.metaPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	s.index = nil
	s.metadata = nil
	s.dims = 0
	return nil
}

// persist writes the index and metadata files. Caller holds s.mu.
func (s *Store) persist() error {
	if err := s.index.Save(s.indexPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.metaPath), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	data, err := json.Marshal(s.metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
