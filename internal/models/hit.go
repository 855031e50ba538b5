package models

// Origin identifies which retrieval channel produced a hit.
type Origin string

const (
	// OriginVector marks a hit from the dense (nearest-neighbor) channel.
	OriginVector Origin = "vector"
	// OriginKeyword marks a hit from the keyword fallback channel.
	OriginKeyword Origin = "keyword"
)

// Hit is a single retrieval result. It is a tagged variant: vector hits carry
// the reconstructed chunk and its raw L2 distance; keyword hits carry only a
// source location and the keyword engine's score, never a text snippet.
// Callers must check Origin before reading channel-specific fields.
type Hit struct {
	Origin Origin `json:"origin"`
	// Chunk is set for vector hits only (embedding stripped).
	Chunk *Chunk `json:"chunk,omitempty"`
	// Source is the origin identifier; set for both channels.
	Source string `json:"source"`
	// Distance is the raw squared-L2 distance (vector hits only).
	Distance float64 `json:"distance,omitempty"`
	// Score is the keyword engine's relevance score (keyword hits only).
	Score float64 `json:"score,omitempty"`
}

// VectorHit builds a hit for the dense channel.
func VectorHit(chunk *Chunk, distance float64) Hit {
	return Hit{
		Origin:   OriginVector,
		Chunk:    chunk,
		Source:   chunk.Source(),
		Distance: distance,
	}
}

// KeywordHit builds a location-only hit for the keyword fallback channel.
func KeywordHit(source string, score float64) Hit {
	return Hit{
		Origin: OriginKeyword,
		Source: source,
		Score:  score,
	}
}
