// Package vector provides a file-backed flat index with exact L2 search and
// the durable chunk store built on top of it.
package vector

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FlatIndex is a flat (exhaustive) vector index searched under squared
// Euclidean distance. Rows are addressed by insertion position.
type FlatIndex struct {
	dims    int
	vectors [][]float32
	mu      sync.RWMutex
}

// NewFlatIndex creates an empty index with the given dimensionality.
func NewFlatIndex(dims int) (*FlatIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}
	return &FlatIndex{dims: dims}, nil
}

// OpenFlatIndex reads a previously saved index from path.
func OpenFlatIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var dims, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dims); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if dims == 0 {
		return nil, fmt.Errorf("index file has zero dimensions")
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}
	idx := &FlatIndex{dims: int(dims), vectors: make([][]float32, 0, n)}
	buf := make([]byte, idx.dims*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		idx.vectors = append(idx.vectors, bytesToFloat32s(buf))
	}
	return idx, nil
}

// Dims returns the index dimensionality.
func (x *FlatIndex) Dims() int {
	return x.dims
}

// Len returns the number of stored vectors.
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Add appends vectors in order. Every vector must match the index
// dimensionality; on mismatch nothing is appended.
func (x *FlatIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, index expects %d",
				ErrDimensionMismatch, i, len(v), x.dims)
		}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		row := make([]float32, x.dims)
		copy(row, v)
		x.vectors = append(x.vectors, row)
	}
	return nil
}

// Search returns the positions and squared-L2 distances of the up-to-k
// nearest rows, nearest first.
func (x *FlatIndex) Search(query []float32, k int) ([]int, []float64, error) {
	if len(query) != x.dims {
		return nil, nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			ErrDimensionMismatch, len(query), x.dims)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil, nil
	}
	type scored struct {
		row  int
		dist float64
	}
	scores := make([]scored, len(x.vectors))
	for i, row := range x.vectors {
		scores[i] = scored{row: i, dist: squaredL2(query, row)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })
	if k > len(scores) {
		k = len(scores)
	}
	rows := make([]int, k)
	dists := make([]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = scores[i].row
		dists[i] = scores[i].dist
	}
	return rows, dists, nil
}

// Save writes the index to path, creating parent directories as needed.
// Format: dims (4 bytes), row count (4), then rows of dims*4 bytes,
// all little-endian.
func (x *FlatIndex) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(x.dims)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(x.vectors))); err != nil {
		return fmt.Errorf("write row count: %w", err)
	}
	for i, row := range x.vectors {
		if _, err := f.Write(float32sToBytes(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// squaredL2 returns the squared Euclidean distance between a and b.
// Callers guarantee equal lengths.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func float32sToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
