package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contentmem "github.com/studyloop/studyloop-cli/internal/adapters/driven/content/memory"
	vectormem "github.com/studyloop/studyloop-cli/internal/adapters/driven/vector/memory"
	"github.com/studyloop/studyloop-cli/internal/chunker"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

type ingestFixture struct {
	content  *contentmem.Store
	embedder *mockEmbeddingService
	chunks   *vectormem.Index
	units    *vectormem.Index
	svc      *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	splitter, err := chunker.New(chunker.WithChunkSize(50), chunker.WithOverlap(10))
	require.NoError(t, err)

	f := &ingestFixture{
		content:  contentmem.NewStore(),
		embedder: &mockEmbeddingService{defaultVec: []float32{1, 0, 0}},
		chunks:   vectormem.NewIndex(),
		units:    vectormem.NewIndex(),
	}
	// High rate so tests don't wait on the limiter.
	f.svc = NewIngestService(f.content, f.embedder, f.chunks, f.units, splitter,
		WithEmbedRate(100000))
	return f
}

func (f *ingestFixture) addUnit(id, body string) {
	f.content.AddUnit(domain.ContentUnit{
		ID:         id,
		Title:      "Unit " + id,
		Body:       body,
		ModulePath: "python/basics",
		Published:  true,
		CreatedAt:  time.Now(),
	})
}

func TestIngest_Rebuild(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "short body")
	f.addUnit("u2", "another short body")

	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.UnitsProcessed)
	assert.Equal(t, 2, summary.ChunksIndexed)
	assert.Empty(t, summary.FailedUnitIDs)

	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Build time was recorded.
	buildTime, err := f.chunks.BuildTime(ctx)
	require.NoError(t, err)
	assert.False(t, buildTime.IsZero())
}

func TestIngest_IncrementalSkipsIndexedUnits(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	f.addUnit("u2", "second body")
	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UnitsProcessed)
	assert.Equal(t, 1, summary.UnitsSkipped)
}

func TestIngest_ForceReindexesEverything(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UnitsProcessed)
	assert.Zero(t, summary.UnitsSkipped)

	// Upsert is idempotent: no duplicate entries.
	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngest_SkipAndContinueOnEmbedFailure(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("bad", "this body fails")
	f.addUnit("good", "this body works")

	// Only the bad unit's body fails to embed.
	f.embedder.errByText = map[string]error{
		"this body fails": domain.ErrProviderUnavailable,
	}

	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.UnitsProcessed)
	assert.Equal(t, []string{"bad"}, summary.FailedUnitIDs)

	count, err := f.chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngest_DimensionMismatchAborts(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")
	f.addUnit("u2", "second body")

	// Seed the index with 2-dim entries, then embed with 3 dims.
	require.NoError(t, f.chunks.Upsert(ctx, []domain.IndexEntry{
		{ID: "seed#0", UnitID: "seed", Embedding: []float32{1, 0}},
	}))

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{Force: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIngest_ClearRebuildsFromScratch(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)

	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{Clear: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnitsProcessed)
	assert.Zero(t, summary.UnitsSkipped)
}

func TestIngest_ComputeSimilarityFillsUnitIndex(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{ComputeSimilarity: true})
	require.NoError(t, err)

	entry, err := f.units.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", entry.UnitID)
	assert.Equal(t, "Unit u1", entry.Text)
}

func TestIngest_EmptyBodyIndexesNothing(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("empty", "")

	summary, err := f.svc.Rebuild(ctx, driving.IngestOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnitsProcessed)
	assert.Zero(t, summary.ChunksIndexed)
}

func TestIngest_SingleWriter(t *testing.T) {
	f := newIngestFixture(t)

	f.svc.running.Store(true)
	_, err := f.svc.Rebuild(context.Background(), driving.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrIngestInProgress)
}

func TestIngest_NoEmbedder(t *testing.T) {
	splitter, err := chunker.New()
	require.NoError(t, err)

	svc := NewIngestService(contentmem.NewStore(), nil, vectormem.NewIndex(), nil, splitter)
	_, err = svc.Rebuild(context.Background(), driving.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngest_Stats(t *testing.T) {
	ctx := context.Background()
	f := newIngestFixture(t)
	f.addUnit("u1", "first body")

	_, err := f.svc.Rebuild(ctx, driving.IngestOptions{ComputeSimilarity: true})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EntryCount)
	assert.Equal(t, 1, stats.UnitEntryCount)
	assert.Equal(t, 3, stats.Dimensions)
	assert.False(t, stats.LastBuildTime.IsZero())
}
