package domain

import "time"

// IndexEntry is a (vector, metadata) pair stored in the vector index.
// The index is the sole owner: entries are created during ingestion,
// replaced wholesale on a clear rebuild, and never mutated in place.
type IndexEntry struct {
	// ID is the entry identifier. Upserts replace entries with the same ID.
	ID string

	// UnitID references the source content unit.
	UnitID string

	// ModulePath is the unit's structural path, kept for filtering.
	ModulePath string

	// Seq is the chunk's ordinal within the unit (zero for unit entries).
	Seq int

	// Text is the indexed text span.
	Text string

	// Embedding is the vector representation.
	Embedding []float32
}

// RetrievalResult is a scored chunk produced for a single query.
// Transient: computed per query, never persisted.
type RetrievalResult struct {
	// ChunkID is the matched entry's identifier.
	ChunkID string

	// UnitID is the source content unit.
	UnitID string

	// ModulePath is the unit's structural path.
	ModulePath string

	// Text is the matched chunk text.
	Text string

	// Score is the similarity in [0,1] after normalisation
	// ((1+cosine)/2; cosine 1.0 maps to score 1.0).
	Score float64
}

// IndexStats describes the state of the vector index.
type IndexStats struct {
	// EntryCount is the number of chunk-level entries.
	EntryCount int

	// UnitEntryCount is the number of unit-level entries.
	UnitEntryCount int

	// Dimensions is the index's embedding dimensionality (0 when empty).
	Dimensions int

	// LastBuildTime is when the last ingestion run finished.
	// Zero when the index has never been built.
	LastBuildTime time.Time
}
