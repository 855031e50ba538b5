package ingest

import (
	"fmt"
	"strings"
	"testing"
)

// newTestChunker skips when the token encoding is unavailable (no cached BPE
// files and no network).
func newTestChunker(t *testing.T, chunkSize, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(chunkSize, overlap)
	if err != nil {
		t.Skipf("token encoder unavailable: %v", err)
	}
	return c
}

func TestChunk_IDsAreSequential(t *testing.T) {
	c := newTestChunker(t, 10, 2)
	text := strings.Repeat("word ", 100)
	chunks := c.Chunk("doc.txt", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		want := fmt.Sprintf("doc.txt__chunk_%d", i)
		if ch.ID() != want {
			t.Errorf("chunk %d id = %q, want %q", i, ch.ID(), want)
		}
		if ch.Source() != "doc.txt" {
			t.Errorf("chunk %d source = %q", i, ch.Source())
		}
	}
}

func TestChunk_EmptyTextYieldsNothing(t *testing.T) {
	c := newTestChunker(t, 10, 2)
	if chunks := c.Chunk("doc.txt", ""); len(chunks) != 0 {
		t.Errorf("empty text produced %d chunks", len(chunks))
	}
}

func TestChunk_ShortTextIsSingleChunk(t *testing.T) {
	c := newTestChunker(t, 250, 50)
	chunks := c.Chunk("doc.txt", "just a few words")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].ID() != "doc.txt__chunk_0" {
		t.Errorf("id = %q", chunks[0].ID())
	}
	if !strings.Contains(chunks[0].Content, "few words") {
		t.Errorf("content lost: %q", chunks[0].Content)
	}
}

func TestChunk_OverlapCoversAllText(t *testing.T) {
	c := newTestChunker(t, 10, 3)
	text := strings.Repeat("alpha beta gamma ", 30)
	chunks := c.Chunk("doc.txt", text)

	var total int
	for _, ch := range chunks {
		total += len(c.encoder.Encode(ch.Content, nil, nil))
	}
	textTokens := len(c.encoder.Encode(text, nil, nil))
	// With overlap, the chunk token sum must be at least the full text.
	if total < textTokens {
		t.Errorf("chunks cover %d tokens, text has %d", total, textTokens)
	}
}

func TestNewChunker_DefaultsOnBadValues(t *testing.T) {
	c := newTestChunker(t, 0, -1)
	if c.chunkSize != DefaultChunkSize || c.overlap != DefaultChunkOverlap {
		t.Errorf("got size=%d overlap=%d, want defaults", c.chunkSize, c.overlap)
	}
	// Overlap >= size also falls back.
	c2 := newTestChunker(t, 100, 100)
	if c2.overlap != DefaultChunkOverlap {
		t.Errorf("overlap = %d, want default", c2.overlap)
	}
}

func TestNewChunker_SmallWindowClampsOverlap(t *testing.T) {
	// A window smaller than the default overlap must still advance.
	c := newTestChunker(t, 30, 50)
	if c.chunkSize != 30 {
		t.Fatalf("chunkSize = %d, want 30", c.chunkSize)
	}
	if c.overlap >= c.chunkSize {
		t.Fatalf("overlap = %d, must be below chunkSize %d", c.overlap, c.chunkSize)
	}

	text := strings.Repeat("word ", 100)
	chunks := c.Chunk("doc.txt", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		want := fmt.Sprintf("doc.txt__chunk_%d", i)
		if ch.ID() != want {
			t.Errorf("chunk %d id = %q, want %q", i, ch.ID(), want)
		}
	}
}
