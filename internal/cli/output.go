// Package cli provides output formatting for the bunko command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/bunko/internal/models"
	"github.com/hyperjump/bunko/internal/scoring"
	"github.com/hyperjump/bunko/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// FormatText is human-readable text (default).
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON for machine consumption.
	FormatJSON OutputFormat = "json"
)

// WriteHits writes retrieval hits to w in the given format. maxDistance is
// the display-score clamp; it affects the printed relevance only, never the
// order of hits.
func WriteHits(w io.Writer, query string, hits []models.Hit, maxDistance float64, format OutputFormat) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query string       `json:"query"`
			Hits  []models.Hit `json:"hits"`
		}{Query: query, Hits: hits})
	}
	writeHitsText(w, query, hits, maxDistance)
	return nil
}

func writeHitsText(w io.Writer, query string, hits []models.Hit, maxDistance float64) {
	fmt.Fprintf(w, "\n%d results for %q\n\n", len(hits), query)
	for i, hit := range hits {
		switch hit.Origin {
		case models.OriginVector:
			relevance := scoring.DistanceToScore(hit.Distance, maxDistance,
				scoring.DefaultMinScore, scoring.DefaultMaxScore)
			fmt.Fprintf(w, "%d. [vector] %s | distance: %.4f | relevance: %.2f\n",
				i+1, hit.Chunk.ID(), hit.Distance, relevance)
			if hit.Chunk.Content != "" {
				fmt.Fprintf(w, "   %s\n", utils.Truncate(hit.Chunk.Content, 200))
			}
		case models.OriginKeyword:
			fmt.Fprintf(w, "%d. [keyword] %s | score: %.4f\n", i+1, hit.Source, hit.Score)
		}
	}
}

// WriteAnswer writes a QA answer and its source chunks to w.
func WriteAnswer(w io.Writer, answer string, used []*models.Chunk) {
	fmt.Fprintln(w, "=== Answer ===")
	fmt.Fprintln(w, answer)
	if len(used) == 0 {
		return
	}
	fmt.Fprintln(w, "\n=== Sources ===")
	for _, ch := range used {
		fmt.Fprintf(w, "- %s\n", ch.ID())
	}
}
