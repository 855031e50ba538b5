// Package models defines core data structures for chunks, queries, and retrieval hits.
package models

import "fmt"

// Reserved metadata keys on a Chunk.
const (
	// MetaSource is the origin identifier (file path or logical source name).
	MetaSource = "source"
	// MetaChunkID is the stable per-source chunk identifier.
	MetaChunkID = "chunk_id"
)

// Chunk is the atomic unit of indexing and retrieval: a bounded slice of a
// source document together with its provenance metadata and, while indexing,
// its dense embedding.
type Chunk struct {
	Content   string                 `json:"page_content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"embedding,omitempty"`
}

// NewChunk creates a chunk for the given source with the conventional
// "{source}__chunk_{seq}" ID, where seq is the zero-based position of the
// chunk within its source's split sequence.
func NewChunk(source string, seq int, content string) *Chunk {
	return &Chunk{
		Content: content,
		Metadata: map[string]interface{}{
			MetaSource:  source,
			MetaChunkID: ChunkID(source, seq),
		},
	}
}

// ChunkID returns the stable chunk identifier for a source and sequence number.
func ChunkID(source string, seq int) string {
	return fmt.Sprintf("%s__chunk_%d", source, seq)
}

// Source returns the source metadata value, or "" when unset.
func (c *Chunk) Source() string {
	if s, ok := c.Metadata[MetaSource].(string); ok {
		return s
	}
	return ""
}

// ID returns the chunk_id metadata value, or "" when unset.
func (c *Chunk) ID() string {
	if s, ok := c.Metadata[MetaChunkID].(string); ok {
		return s
	}
	return ""
}

// CloneMetadata returns a shallow copy of the metadata map. Returns an empty
// map (never nil) so callers can write to it.
func (c *Chunk) CloneMetadata() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Metadata))
	for k, v := range c.Metadata {
		out[k] = v
	}
	return out
}
