package driving

import (
	"context"
	"time"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// Ingestor drives the chunk/embed/index pipeline that (re)builds the
// vector index from the content collaborator.
type Ingestor interface {
	// Rebuild runs one ingestion pass. A unit that fails to embed is
	// logged, recorded in the summary and skipped; the run continues.
	// Only domain.ErrInvalidConfiguration and domain.ErrDimensionMismatch
	// abort the run.
	Rebuild(ctx context.Context, opts IngestOptions) (*IngestSummary, error)

	// Stats reports the current index state for the management surface.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}

// IngestOptions configures one ingestion run.
type IngestOptions struct {
	// Clear removes all existing entries first (full rebuild).
	Clear bool

	// ComputeSimilarity also embeds each unit as a whole (title + body
	// head) into the unit-level index for recommendations.
	ComputeSimilarity bool

	// Force re-ingests units that are already represented in the index.
	// Without it, incremental runs skip them.
	Force bool
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	// RunID identifies the run in logs.
	RunID string

	// UnitsProcessed is how many units were chunked and indexed.
	UnitsProcessed int

	// UnitsSkipped is how many units were skipped as already indexed.
	UnitsSkipped int

	// ChunksIndexed is the total number of chunk entries written.
	ChunksIndexed int

	// FailedUnitIDs lists units skipped because embedding or indexing
	// failed. Partial failure is reported here rather than aborting.
	FailedUnitIDs []string

	// Duration is the wall-clock run time.
	Duration time.Duration
}
