package models

import (
	"encoding/json"
	"testing"
)

func TestNewChunk(t *testing.T) {
	c := NewChunk("docs/report.pdf", 0, "some content")
	if c.Content != "some content" {
		t.Errorf("content = %q", c.Content)
	}
	if c.Source() != "docs/report.pdf" {
		t.Errorf("source = %q", c.Source())
	}
	if c.ID() != "docs/report.pdf__chunk_0" {
		t.Errorf("id = %q", c.ID())
	}
}

func TestChunkID_Sequence(t *testing.T) {
	for seq, want := range []string{"a.txt__chunk_0", "a.txt__chunk_1", "a.txt__chunk_2"} {
		if got := ChunkID("a.txt", seq); got != want {
			t.Errorf("ChunkID(a.txt, %d) = %q, want %q", seq, got, want)
		}
	}
}

func TestChunk_EmptyMetadata(t *testing.T) {
	c := &Chunk{Content: "bare"}
	if c.Source() != "" || c.ID() != "" {
		t.Errorf("unset metadata should yield empty accessors, got %q / %q", c.Source(), c.ID())
	}
	cloned := c.CloneMetadata()
	if cloned == nil {
		t.Fatal("CloneMetadata must never return nil")
	}
	cloned["k"] = "v"
}

func TestChunk_CloneMetadataIsIndependent(t *testing.T) {
	c := NewChunk("a.txt", 3, "content")
	cloned := c.CloneMetadata()
	cloned[MetaSource] = "other.txt"
	if c.Source() != "a.txt" {
		t.Errorf("mutating the clone changed the original: %q", c.Source())
	}
}

func TestChunk_JSONRoundTrip(t *testing.T) {
	c := NewChunk("a.txt", 1, "hello")
	c.Embedding = []float32{1, 2, 3}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var back Chunk
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Content != "hello" || back.ID() != "a.txt__chunk_1" || len(back.Embedding) != 3 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestVectorHit(t *testing.T) {
	c := NewChunk("a.txt", 0, "content")
	h := VectorHit(c, 0.42)
	if h.Origin != OriginVector || h.Chunk != c || h.Source != "a.txt" || h.Distance != 0.42 {
		t.Errorf("unexpected vector hit: %+v", h)
	}
}

func TestKeywordHit(t *testing.T) {
	h := KeywordHit("b.txt", 8.5)
	if h.Origin != OriginKeyword || h.Source != "b.txt" || h.Score != 8.5 {
		t.Errorf("unexpected keyword hit: %+v", h)
	}
	if h.Chunk != nil {
		t.Error("keyword hit must not carry a chunk")
	}
}
