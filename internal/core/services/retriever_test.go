package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/studyloop/studyloop-cli/internal/adapters/driven/vector/memory"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

func newRetrieverFixture(t *testing.T) (*RetrieverService, *vectormem.Index, *mockEmbeddingService) {
	t.Helper()

	index := vectormem.NewIndex()
	embedder := &mockEmbeddingService{defaultVec: []float32{1, 0, 0}}
	svc := NewRetrieverService(embedder, index, domain.RetrievalSettings{
		TopK:       5,
		MaxPerUnit: 2,
	})
	return svc, index, embedder
}

func seedEntries(t *testing.T, index *vectormem.Index, entries ...domain.IndexEntry) {
	t.Helper()
	require.NoError(t, index.Upsert(context.Background(), entries))
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	svc, index, embedder := newRetrieverFixture(t)
	embedder.byText = map[string][]float32{"loops": {1, 0, 0}}

	seedEntries(t, index,
		domain.IndexEntry{ID: "far#0", UnitID: "far", Text: "sorting", Embedding: []float32{0, 1, 0}},
		domain.IndexEntry{ID: "near#0", UnitID: "near", Text: "for loops", Embedding: []float32{1, 0, 0}},
		domain.IndexEntry{ID: "mid#0", UnitID: "mid", Text: "while loops", Embedding: []float32{0.7, 0.7, 0}},
	)

	results, err := svc.Retrieve(ctx, "loops", driving.RetrieveOptions{K: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "near#0", results[0].ChunkID)
	assert.Equal(t, "mid#0", results[1].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRetrieve_ScoresNormalisedToUnitInterval(t *testing.T) {
	ctx := context.Background()
	svc, index, embedder := newRetrieverFixture(t)
	embedder.byText = map[string][]float32{"q": {1, 0, 0}}

	seedEntries(t, index,
		domain.IndexEntry{ID: "same#0", UnitID: "same", Embedding: []float32{1, 0, 0}},
		domain.IndexEntry{ID: "opposite#0", UnitID: "opposite", Embedding: []float32{-1, 0, 0}},
	)

	results, err := svc.Retrieve(ctx, "q", driving.RetrieveOptions{K: 2, MaxPerUnit: -1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.0, results[1].Score, 1e-6)
}

func TestRetrieve_CapsChunksPerUnit(t *testing.T) {
	ctx := context.Background()
	svc, index, _ := newRetrieverFixture(t)

	// Five chunks from one unit, one from another, all equally similar.
	entries := make([]domain.IndexEntry, 0, 6)
	for i := 0; i < 5; i++ {
		entries = append(entries, domain.IndexEntry{
			ID:        domain.ChunkID("big", i),
			UnitID:    "big",
			Seq:       i,
			Embedding: []float32{1, 0, 0},
		})
	}
	entries = append(entries, domain.IndexEntry{
		ID: "small#0", UnitID: "small", Embedding: []float32{1, 0, 0},
	})
	seedEntries(t, index, entries...)

	results, err := svc.Retrieve(ctx, "anything", driving.RetrieveOptions{K: 4})
	require.NoError(t, err)
	require.Len(t, results, 3)

	perUnit := map[string]int{}
	for _, r := range results {
		perUnit[r.UnitID]++
	}
	assert.Equal(t, 2, perUnit["big"])
	assert.Equal(t, 1, perUnit["small"])
}

func TestRetrieve_ModuleFilter(t *testing.T) {
	ctx := context.Background()
	svc, index, _ := newRetrieverFixture(t)

	seedEntries(t, index,
		domain.IndexEntry{ID: "py#0", UnitID: "py", ModulePath: "python/loops", Embedding: []float32{1, 0, 0}},
		domain.IndexEntry{ID: "go#0", UnitID: "go", ModulePath: "golang/loops", Embedding: []float32{1, 0, 0}},
	)

	results, err := svc.Retrieve(ctx, "loops", driving.RetrieveOptions{
		K:          5,
		ModulePath: "python",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "py", results[0].UnitID)
}

func TestRetrieve_DefaultsKFromSettings(t *testing.T) {
	ctx := context.Background()
	svc, index, _ := newRetrieverFixture(t)

	entries := make([]domain.IndexEntry, 8)
	for i := range entries {
		entries[i] = domain.IndexEntry{
			ID:        domain.ChunkID("u"+string(rune('a'+i)), 0),
			UnitID:    "u" + string(rune('a'+i)),
			Embedding: []float32{1, 0, 0},
		}
	}
	seedEntries(t, index, entries...)

	results, err := svc.Retrieve(ctx, "q", driving.RetrieveOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestRetrieve_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRetrieverFixture(t)

	_, err := svc.Retrieve(ctx, "   ", driving.RetrieveOptions{K: 3})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = svc.Retrieve(ctx, "q", driving.RetrieveOptions{K: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newRetrieverFixture(t)

	results, err := svc.Retrieve(ctx, "q", driving.RetrieveOptions{K: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieve_EmbedFailurePropagates(t *testing.T) {
	ctx := context.Background()
	svc, index, embedder := newRetrieverFixture(t)
	seedEntries(t, index, domain.IndexEntry{ID: "u#0", UnitID: "u", Embedding: []float32{1, 0, 0}})
	embedder.embedErr = domain.ErrProviderUnavailable

	_, err := svc.Retrieve(ctx, "q", driving.RetrieveOptions{K: 3})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestRetrieve_NoEmbedder(t *testing.T) {
	svc := NewRetrieverService(nil, vectormem.NewIndex(), domain.RetrievalSettings{TopK: 5})

	_, err := svc.Retrieve(context.Background(), "q", driving.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNormalizeScore(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizeScore(1), 1e-9)
	assert.InDelta(t, 0.5, NormalizeScore(0), 1e-9)
	assert.InDelta(t, 0.0, NormalizeScore(-1), 1e-9)
}
