package driving

import (
	"context"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// Recommender scores unvisited content for a user.
type Recommender interface {
	// Recommend returns up to limit scored units, descending score, ties
	// broken by content creation order. A user with no completed content
	// gets the deterministic difficulty-ordered fallback, not an error.
	Recommend(ctx context.Context, userID string, kind domain.RecommendationKind, limit int) ([]domain.RecommendationScore, error)
}

// Scheduler runs the periodic recommendation warm job.
type Scheduler interface {
	// Run blocks, warming recommendations for all active users every
	// interval, until the context is cancelled.
	Run(ctx context.Context) error

	// WarmAll runs one warm pass immediately.
	WarmAll(ctx context.Context) error
}
