package ingest

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hyperjump/bunko/internal/models"
)

// Default chunk window in tokens.
const (
	DefaultChunkSize    = 250
	DefaultChunkOverlap = 50
)

// tokenEncoding is compatible with the OpenAI embedding models.
const tokenEncoding = "cl100k_base"

// Chunker splits source text into overlapping token windows. Chunk IDs are
// "{source}__chunk_{n}" with n counting from zero in offset order.
type Chunker struct {
	encoder   *tiktoken.Tiktoken
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap, both
// in tokens. Non-positive values fall back to the defaults; an overlap at or
// above the window size is clamped so the window always advances.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize - 1
		}
	}
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("get %s encoder: %w", tokenEncoding, err)
	}
	return &Chunker{encoder: encoder, chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into chunk records attributed to source. Empty text
// yields no chunks.
func (c *Chunker) Chunk(source, text string) []*models.Chunk {
	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	var chunks []*models.Chunk
	for start, seq := 0, 0; start < len(tokens); start, seq = start+step, seq+1 {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, models.NewChunk(source, seq, c.encoder.Decode(tokens[start:end])))
		if end >= len(tokens) {
			break
		}
	}
	return chunks
}
