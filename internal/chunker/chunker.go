// Package chunker splits content unit text into bounded-size overlapping
// chunks for indexing.
package chunker

import (
	"fmt"
	"unicode"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping runes.
const DefaultOverlap = 200

// DefaultBoundaryTolerance is how far back from a hard cut the chunker
// looks for a whitespace break.
const DefaultBoundaryTolerance = 80

// Chunker splits text into overlapping chunks, preferring whitespace
// boundaries within a small tolerance window before falling back to a
// hard cut.
type Chunker struct {
	chunkSize int
	overlap   int
	tolerance int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithBoundaryTolerance sets the whitespace lookback window in runes.
func WithBoundaryTolerance(tolerance int) Option {
	return func(c *Chunker) {
		c.tolerance = tolerance
	}
}

// New creates a chunker. It fails with domain.ErrInvalidConfiguration when
// chunkSize <= 0, overlap is negative, or overlap >= chunkSize.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		tolerance: DefaultBoundaryTolerance,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d",
			domain.ErrInvalidConfiguration, c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, chunk size %d)",
			domain.ErrInvalidConfiguration, c.overlap, c.chunkSize)
	}
	if c.tolerance < 0 {
		c.tolerance = 0
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split covers the text with overlapping chunks. Empty input yields an
// empty result. Slicing is rune-based so multibyte text never splits
// mid-character. Each chunk records the overlap actually applied, so
// concatenating chunks minus their overlaps reconstructs the text exactly.
func (c *Chunker) Split(unitID, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	estimated := len(runes)/(c.chunkSize-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	seq := 0
	overlapApplied := 0

	for {
		end := c.cut(runes, start)

		chunks = append(chunks, domain.Chunk{
			ID:      domain.ChunkID(unitID, seq),
			UnitID:  unitID,
			Seq:     seq,
			Text:    string(runes[start:end]),
			Overlap: overlapApplied,
		})

		if end == len(runes) {
			return chunks
		}

		next := end - c.overlap
		if next <= start {
			// Guarantee forward progress even for degenerate windows.
			next = start + 1
		}
		overlapApplied = end - next
		start = next
		seq++
	}
}

// cut picks the end of the chunk starting at start: a whitespace break
// within the tolerance window when one exists, a hard cut otherwise.
func (c *Chunker) cut(runes []rune, start int) int {
	end := start + c.chunkSize
	if end >= len(runes) {
		return len(runes)
	}

	low := end - c.tolerance
	if low <= start+1 {
		low = start + 1
	}
	for i := end; i > low; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
