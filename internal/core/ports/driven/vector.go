package driven

import (
	"context"
	"time"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// VectorIndex persists (vector, metadata) pairs and answers
// nearest-neighbour queries by cosine similarity.
//
// The index is a derived cache: it must always be reconstructible from the
// content store, so losing it only requires a rebuild, never data loss.
// The first write fixes the index dimensionality; later writes with a
// different dimensionality fail with domain.ErrDimensionMismatch.
type VectorIndex interface {
	// Upsert inserts or replaces entries, idempotent by entry ID.
	// Atomic per call: a dimension mismatch rejects the whole batch and
	// leaves the index untouched.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns up to k nearest entries by cosine similarity,
	// descending score, ties broken by insertion order (earlier wins).
	// An optional filter restricts candidates before ranking.
	// An empty index returns an empty result, not an error.
	Query(ctx context.Context, embedding []float32, k int, filter *QueryFilter) ([]VectorHit, error)

	// Get returns the entry with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.IndexEntry, error)

	// ContainsUnit reports whether any entry references the content unit.
	// Used for incremental ingestion.
	ContainsUnit(ctx context.Context, unitID string) (bool, error)

	// Clear removes all entries. Used for full rebuilds.
	Clear(ctx context.Context) error

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the index's fixed dimensionality, or 0 while the
	// index is empty.
	Dimensions(ctx context.Context) (int, error)

	// SetBuildTime records when the last ingestion run finished.
	SetBuildTime(ctx context.Context, t time.Time) error

	// BuildTime returns the last recorded build time (zero if never built).
	BuildTime(ctx context.Context) (time.Time, error)

	// Close releases resources.
	Close() error
}

// QueryFilter restricts query candidates before ranking.
type QueryFilter struct {
	// ModulePath keeps only entries under the given structural path.
	ModulePath string

	// UnitIDs keeps only entries of the listed units when non-empty.
	UnitIDs []string
}

// VectorHit is a raw similarity search result.
type VectorHit struct {
	// Entry is the matched index entry.
	Entry domain.IndexEntry

	// Similarity is the cosine similarity in [-1,1].
	Similarity float64
}
