package domain

// RecommendationKind selects a recommendation strategy.
type RecommendationKind string

// Available recommendation kinds.
const (
	// RecommendationNextContent scores unvisited units against the
	// centroid of the user's completed-content embeddings.
	RecommendationNextContent RecommendationKind = "next_content"
)

// IsValid returns true if the kind is recognised.
func (k RecommendationKind) IsValid() bool {
	return k == RecommendationNextContent
}

// String returns the string representation.
func (k RecommendationKind) String() string {
	return string(k)
}

// Rationale tags explaining how a recommendation was scored.
const (
	// RationaleCentroid marks scores from centroid cosine similarity.
	RationaleCentroid = "centroid_similarity"

	// RationaleDifficultyFallback marks the deterministic default list
	// used when a user has no completed content.
	RationaleDifficultyFallback = "difficulty_fallback"
)

// RecommendationScore is a scored content unit for a user. Transient:
// recomputed on demand, never authoritative state.
type RecommendationScore struct {
	// UnitID is the recommended content unit.
	UnitID string

	// Score is the similarity to the user's completed-content centroid,
	// in [0,1]. Fallback entries carry a descending positional score.
	Score float64

	// Rationale tags how the score was produced.
	Rationale string
}
