package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

func entry(id, unitID, modulePath string, embedding []float32) domain.IndexEntry {
	return domain.IndexEntry{
		ID:         id,
		UnitID:     unitID,
		ModulePath: modulePath,
		Text:       "text of " + id,
		Embedding:  embedding,
	}
}

func TestIndex_QueryEmptyIndex(t *testing.T) {
	idx := NewIndex()

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 5, nil)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_RoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	target := []float32{0.5, 0.5, 0}
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "python/basics", []float32{1, 0, 0}),
		entry("b#0", "b", "python/basics", target),
		entry("c#0", "c", "go/basics", []float32{0, 0, 1}),
	}))

	hits, err := idx.Query(ctx, target, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// The exact same embedding comes back first with similarity ~1.0.
	assert.Equal(t, "b#0", hits[0].Entry.ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
	assert.GreaterOrEqual(t, hits[1].Similarity, hits[2].Similarity)
}

func TestIndex_QueryFewerEntriesThanK(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{1, 0}),
		entry("b#0", "b", "m", []float32{0, 1}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Len(t, hits, count)
}

func TestIndex_TiesBrokenByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	// Identical vectors: identical scores, earlier insertion wins.
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("first#0", "first", "m", []float32{1, 1}),
		entry("second#0", "second", "m", []float32{1, 1}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 1}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first#0", hits[0].Entry.ID)
	assert.Equal(t, "second#0", hits[1].Entry.ID)
}

func TestIndex_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{1, 0}),
	}))
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{0, 1}),
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := idx.Get(ctx, "a#0")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.Embedding)
}

func TestIndex_DimensionMismatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{1, 0, 0}),
	}))

	// One good entry, one mismatched: the whole batch must be rejected.
	err := idx.Upsert(ctx, []domain.IndexEntry{
		entry("b#0", "b", "m", []float32{0, 1, 0}),
		entry("c#0", "c", "m", []float32{0, 1}),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = idx.Get(ctx, "b#0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndex_ModulePathFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "python/basics/intro", []float32{1, 0}),
		entry("b#0", "b", "go/basics/intro", []float32{1, 0}),
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, &driven.QueryFilter{ModulePath: "python"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a#0", hits[0].Entry.ID)
}

func TestIndex_ClearResetsDimensions(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{1, 0, 0}),
	}))
	require.NoError(t, idx.Clear(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// After a clear, a different dimensionality is a fresh start.
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("b#0", "b", "m", []float32{1, 0}),
	}))
	dims, err := idx.Dimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)
}

func TestIndex_ContainsUnit(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("a#0", "a", "m", []float32{1, 0}),
	}))

	ok, err := idx.ContainsUnit(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = idx.ContainsUnit(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndex_BuildTime(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()

	got, err := idx.BuildTime(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, idx.SetBuildTime(ctx, now))

	got, err = idx.BuildTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, got)
}
