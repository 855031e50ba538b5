// Package scoring maps raw vector distances to human-facing relevance scores.
// Scores are presentational only and never influence retrieval order.
package scoring

import "math"

// Defaults for DistanceToScore.
const (
	DefaultMaxDistance = 2.0
	DefaultMinScore    = 0.0
	DefaultMaxScore    = 100.0
)

// DistanceToScore converts a squared-L2 distance into a relevance score in
// [minScore, maxScore], rounded to 2 decimal places. Distance 0 maps to
// maxScore, distances at or above maxDistance map to minScore, with linear
// interpolation in between. Negative distances clamp to 0.
func DistanceToScore(distance, maxDistance, minScore, maxScore float64) float64 {
	d := math.Max(0, math.Min(distance, maxDistance))
	ratio := 1.0 - d/maxDistance
	score := minScore + ratio*(maxScore-minScore)
	return math.Round(score*100) / 100
}

// Score applies DistanceToScore with the package defaults.
func Score(distance float64) float64 {
	return DistanceToScore(distance, DefaultMaxDistance, DefaultMinScore, DefaultMaxScore)
}
