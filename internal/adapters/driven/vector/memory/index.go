// Package memory provides an in-memory vector index, used in tests and
// for small installs that do not need persistence.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studyloop/studyloop-cli/internal/adapters/driven/vector"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a mutex-guarded brute-force cosine index. Entries keep their
// insertion order, which breaks score ties (earlier wins). Safe for
// concurrent readers; writes take the exclusive lock.
type Index struct {
	mu        sync.RWMutex
	entries   []domain.IndexEntry
	byID      map[string]int
	dims      int
	buildTime time.Time
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		byID: make(map[string]int),
	}
}

// Upsert inserts or replaces entries by ID. The whole batch is validated
// against the index dimensionality before anything is written, so a
// mismatch leaves the index untouched.
func (idx *Index) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dims := idx.dims
	if dims == 0 {
		dims = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if len(e.Embedding) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Embedding), dims)
		}
	}
	idx.dims = dims

	for _, e := range entries {
		if pos, ok := idx.byID[e.ID]; ok {
			// Replacement keeps the original insertion slot.
			idx.entries[pos] = e
			continue
		}
		idx.byID[e.ID] = len(idx.entries)
		idx.entries = append(idx.entries, e)
	}

	return nil
}

// Query returns up to k nearest entries by cosine similarity, descending,
// ties broken by insertion order. An empty index yields an empty result.
func (idx *Index) Query(
	_ context.Context, embedding []float32, k int, filter *driven.QueryFilter,
) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(embedding) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(embedding), idx.dims)
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if !vector.MatchesFilter(e.UnitID, e.ModulePath, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Entry:      e,
			Similarity: vector.Cosine(embedding, e.Embedding),
		})
	}

	// Stable sort over insertion-ordered candidates: equal scores keep
	// the earlier entry first.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns the entry with the given ID.
func (idx *Index) Get(_ context.Context, id string) (*domain.IndexEntry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, ok := idx.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	entry := idx.entries[pos]
	return &entry, nil
}

// ContainsUnit reports whether any entry references the content unit.
func (idx *Index) ContainsUnit(_ context.Context, unitID string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, e := range idx.entries {
		if e.UnitID == unitID {
			return true, nil
		}
	}
	return false, nil
}

// Clear removes all entries and resets the dimensionality.
func (idx *Index) Clear(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = nil
	idx.byID = make(map[string]int)
	idx.dims = 0
	return nil
}

// Count returns the number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Dimensions returns the index dimensionality, 0 while empty.
func (idx *Index) Dimensions(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dims, nil
}

// SetBuildTime records when the last ingestion run finished.
func (idx *Index) SetBuildTime(_ context.Context, t time.Time) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.buildTime = t
	return nil
}

// BuildTime returns the last recorded build time.
func (idx *Index) BuildTime(_ context.Context) (time.Time, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.buildTime, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}
