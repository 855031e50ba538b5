package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/bunko/internal/models"
)

func sampleHits() []models.Hit {
	return []models.Hit{
		models.VectorHit(models.NewChunk("a.txt", 0, "dense chunk content"), 0.5),
		models.KeywordHit("b.txt", 4.2),
	}
}

func TestWriteHits_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "budget", sampleHits(), 2.0, FormatText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		`2 results for "budget"`,
		"[vector] a.txt__chunk_0",
		"distance: 0.5000",
		"relevance: 75.00",
		"dense chunk content",
		"[keyword] b.txt",
		"score: 4.2000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteHits_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "budget", sampleHits(), 2.0, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Query string       `json:"query"`
		Hits  []models.Hit `json:"hits"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if decoded.Query != "budget" || len(decoded.Hits) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Hits[0].Origin != models.OriginVector || decoded.Hits[1].Origin != models.OriginKeyword {
		t.Errorf("origins lost: %+v", decoded.Hits)
	}
}

func TestWriteAnswer(t *testing.T) {
	var buf bytes.Buffer
	WriteAnswer(&buf, "The answer.", []*models.Chunk{models.NewChunk("a.txt", 0, "x")})
	out := buf.String()
	if !strings.Contains(out, "The answer.") || !strings.Contains(out, "- a.txt__chunk_0") {
		t.Errorf("output:\n%s", out)
	}

	buf.Reset()
	WriteAnswer(&buf, "No sources.", nil)
	if strings.Contains(buf.String(), "Sources") {
		t.Errorf("sources section printed with no chunks:\n%s", buf.String())
	}
}
