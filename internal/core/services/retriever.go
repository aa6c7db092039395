package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// overFetchFactor is how many extra candidates are pulled from the index
// before the per-unit cap is applied. Capping can discard candidates, so
// fetching exactly K would under-fill the result.
const overFetchFactor = 3

// RetrieverService answers similarity queries over the chunk index.
type RetrieverService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.RetrievalSettings
}

// NewRetrieverService creates a new retriever service.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.RetrievalSettings,
) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		index:    index,
		settings: settings,
	}
}

// Retrieve embeds the query and returns the top-K most similar chunks.
// Scores are cosine similarity normalised to [0,1].
func (s *RetrieverService) Retrieve(ctx context.Context, query string, opts driving.RetrieveOptions) ([]domain.RetrievalResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrEmptyInput)
	}

	k := opts.K
	if k == 0 {
		k = s.settings.TopK
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	maxPerUnit := opts.MaxPerUnit
	if maxPerUnit == 0 {
		maxPerUnit = s.settings.MaxPerUnit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter *driven.QueryFilter
	if opts.ModulePath != "" {
		filter = &driven.QueryFilter{ModulePath: opts.ModulePath}
	}

	// Over-fetch so the per-unit cap doesn't starve the result.
	hits, err := s.index.Query(ctx, embedding, k*overFetchFactor, filter)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("retrieval: %d candidates for k=%d", len(hits), k)

	results := make([]domain.RetrievalResult, 0, k)
	perUnit := make(map[string]int)
	for _, hit := range hits {
		if maxPerUnit > 0 && perUnit[hit.Entry.UnitID] >= maxPerUnit {
			continue
		}
		perUnit[hit.Entry.UnitID]++

		results = append(results, domain.RetrievalResult{
			ChunkID:    hit.Entry.ID,
			UnitID:     hit.Entry.UnitID,
			ModulePath: hit.Entry.ModulePath,
			Text:       hit.Entry.Text,
			Score:      NormalizeScore(hit.Similarity),
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// NormalizeScore maps cosine similarity from [-1,1] onto [0,1] so scores
// compose with the similarity threshold.
func NormalizeScore(cosine float64) float64 {
	return (1 + cosine) / 2
}
