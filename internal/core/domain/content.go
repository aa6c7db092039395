package domain

import (
	"fmt"
	"time"
)

// ContentUnit is an atomic piece of learning material (lesson content).
// It is owned by the content collaborator and read-only to the pipeline.
type ContentUnit struct {
	// ID is the unique identifier for the unit.
	ID string

	// Title is the human-readable title.
	Title string

	// Body is the full text content of the unit.
	Body string

	// ModulePath locates the unit structurally: "path/module/unit".
	ModulePath string

	// Difficulty is the unit's difficulty level.
	Difficulty Difficulty

	// Published indicates whether the unit is visible to learners.
	// Only published units are ingested.
	Published bool

	// CreatedAt orders units for tie-breaking and fallback listings.
	CreatedAt time.Time
}

// Difficulty is a content difficulty level.
type Difficulty string

// Available difficulty levels, easiest first.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank returns an ordinal for sorting, easiest first. Unknown levels sort
// last.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return 3
	}
}

// String returns the string representation.
func (d Difficulty) String() string {
	return string(d)
}

// Chunk is a bounded text span derived from a content unit for indexing.
// Chunks exist only within a single ingestion or query call; they are
// never persisted independently of the index.
type Chunk struct {
	// ID is the deterministic chunk identifier: "<unitID>#<seq>".
	ID string

	// UnitID references the source content unit.
	UnitID string

	// Seq is the ordinal position within the unit.
	Seq int

	// Text is the chunk's text span.
	Text string

	// Overlap is the number of runes at the start of Text that repeat the
	// tail of the previous chunk. Zero for the first chunk.
	Overlap int
}

// ChunkID builds the deterministic identifier for a chunk of a unit.
// Deterministic IDs keep index upserts idempotent across rebuilds.
func ChunkID(unitID string, seq int) string {
	return fmt.Sprintf("%s#%d", unitID, seq)
}
