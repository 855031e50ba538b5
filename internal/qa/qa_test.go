package qa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"

	"github.com/hyperjump/bunko/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	chunks := []*models.Chunk{
		models.NewChunk("a.txt", 0, "the quarterly figures"),
		models.NewChunk("b.txt", 2, "the annual summary"),
	}
	got := BuildPrompt("What were the figures?", chunks)

	if !strings.Contains(got, "count=2") {
		t.Errorf("missing chunk count: %q", got)
	}
	for _, want := range []string{
		"[a.txt__chunk_0]", "the quarterly figures",
		"[b.txt__chunk_2]", "the annual summary",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(got, "Question: What were the figures?") {
		t.Errorf("prompt must end with the question: %q", got)
	}
}

func TestNewAnswerer_RequiresKey(t *testing.T) {
	if _, err := NewAnswerer("", "gpt-4o-mini"); err != ErrAPIKeyNotSet {
		t.Errorf("want ErrAPIKeyNotSet, got %v", err)
	}
}

func TestNewAnswerer_DefaultModel(t *testing.T) {
	a, err := NewAnswerer("sk-test", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.model != DefaultModel {
		t.Errorf("model = %q, want %q", a.model, DefaultModel)
	}
}

func TestAnswer_NoContext(t *testing.T) {
	a, err := NewAnswerer("sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}
	// Keyword-only hits carry no text, so no API call is made.
	hits := []models.Hit{models.KeywordHit("a.txt", 3.2)}
	answer, used, err := a.Answer(context.Background(), "anything", hits)
	if err != nil {
		t.Fatal(err)
	}
	if used != nil {
		t.Errorf("no chunks should be used, got %d", len(used))
	}
	if !strings.Contains(answer, "don't have any context") {
		t.Errorf("unexpected answer: %q", answer)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &openai.Error{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.Error{StatusCode: http.StatusInternalServerError}, true},
		{"bad gateway", &openai.Error{StatusCode: http.StatusBadGateway}, true},
		{"bad api key", &openai.Error{StatusCode: http.StatusUnauthorized}, false},
		{"bad request", &openai.Error{StatusCode: http.StatusBadRequest}, false},
		{"wrapped api error", fmt.Errorf("call: %w", &openai.Error{StatusCode: http.StatusUnauthorized}), false},
		{"network error", errors.New("connection refused"), true},
		{"timeout", context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestContextChunks(t *testing.T) {
	c := models.NewChunk("a.txt", 0, "text")
	hits := []models.Hit{
		models.VectorHit(c, 0.1),
		models.KeywordHit("b.txt", 5),
		{Origin: models.OriginVector, Chunk: nil, Source: "broken"},
	}
	got := contextChunks(hits)
	if len(got) != 1 || got[0] != c {
		t.Errorf("got %d chunks", len(got))
	}
}
