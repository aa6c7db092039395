package driven

import (
	"context"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// ContentStore is the narrow read contract with the learning platform's
// content collaborator. The pipeline never owns or mutates content units.
type ContentStore interface {
	// ListPublishedUnits returns all published units in creation order.
	ListPublishedUnits(ctx context.Context) ([]domain.ContentUnit, error)

	// GetUnit returns one unit by ID, or domain.ErrNotFound. A missing
	// unit is propagated, never silently substituted.
	GetUnit(ctx context.Context, id string) (*domain.ContentUnit, error)
}

// ProgressStore is the narrow read contract with the learning platform's
// progress collaborator, used for recommendation scoring.
type ProgressStore interface {
	// CompletedUnitIDs returns the IDs of units the user has completed.
	CompletedUnitIDs(ctx context.Context, userID string) (map[string]bool, error)

	// EnrolledUnitIDs returns the IDs of units the user is enrolled in.
	EnrolledUnitIDs(ctx context.Context, userID string) (map[string]bool, error)

	// ActiveUserIDs returns the IDs of active users, for the
	// recommendation warm job.
	ActiveUserIDs(ctx context.Context) ([]string, error)
}
