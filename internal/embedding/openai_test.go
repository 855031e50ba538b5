package embedding

import (
	"context"
	"testing"
)

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder("", "text-embedding-3-small", 1536, 100); err != ErrAPIKeyNotSet {
		t.Errorf("want ErrAPIKeyNotSet, got %v", err)
	}
}

func TestNewOpenAIEmbedder_Defaults(t *testing.T) {
	e, err := NewOpenAIEmbedder("sk-test", "", 1536, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e.model != DefaultModel {
		t.Errorf("model = %q, want %q", e.model, DefaultModel)
	}
	if e.Dimensions() != 1536 {
		t.Errorf("dimensions = %d", e.Dimensions())
	}
}

func TestOpenAIEmbedder_CacheHitsSkipAPI(t *testing.T) {
	e, err := NewOpenAIEmbedder("sk-test", "", 4, 100)
	if err != nil {
		t.Fatal(err)
	}
	// Prime the cache directly; a full cache hit must not reach the API.
	e.cache.Set("alpha", []float32{1, 2, 3, 4})
	e.cache.Set("beta", []float32{5, 6, 7, 8})

	got, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0][0] != 1 || got[1][0] != 5 {
		t.Errorf("unexpected cached results: %v", got)
	}

	e.ClearCache()
	if e.cache.Len() != 0 {
		t.Errorf("cache not cleared, len = %d", e.cache.Len())
	}
}
