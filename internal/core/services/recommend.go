package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure RecommendService implements the interface.
var _ driving.Recommender = (*RecommendService)(nil)

// RecommendService scores unvisited content units for a user against the
// centroid of the user's completed-content embeddings.
type RecommendService struct {
	content  driven.ContentStore
	progress driven.ProgressStore
	units    driven.VectorIndex
	settings domain.RecommendSettings
}

// NewRecommendService creates a new recommendation service.
func NewRecommendService(
	content driven.ContentStore,
	progress driven.ProgressStore,
	unitIndex driven.VectorIndex,
	settings domain.RecommendSettings,
) *RecommendService {
	return &RecommendService{
		content:  content,
		progress: progress,
		units:    unitIndex,
		settings: settings,
	}
}

// Recommend returns up to limit scored units, descending score. A user
// with no completed content gets the deterministic difficulty-ordered
// fallback rather than an error.
func (s *RecommendService) Recommend(ctx context.Context, userID string, kind domain.RecommendationKind, limit int) ([]domain.RecommendationScore, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown recommendation kind: %s",
			domain.ErrInvalidInput, kind)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = s.settings.Limit
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d",
			domain.ErrInvalidInput, limit)
	}

	completed, err := s.progress.CompletedUnitIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load completed units for %s: %w", userID, err)
	}

	if len(completed) > 0 && s.units != nil {
		scores, err := s.recommendByCentroid(ctx, completed, limit)
		if err != nil {
			return nil, err
		}
		if scores != nil {
			return scores, nil
		}
		// None of the completed units had embeddings; fall through.
		logger.Debug("no embeddings for %s's completed units, using fallback", userID)
	}

	return s.recommendFallback(ctx, completed, limit)
}

// recommendByCentroid averages the embeddings of completed units and
// queries the unit index for the nearest unvisited ones. Returns nil
// scores when no completed unit has an embedding.
func (s *RecommendService) recommendByCentroid(ctx context.Context, completed map[string]bool, limit int) ([]domain.RecommendationScore, error) {
	// Accumulate in sorted ID order and in float64: map iteration is
	// randomised and float addition is not associative, so an unordered
	// float32 sum can yield different scores for identical inputs.
	ids := make([]string, 0, len(completed))
	for id := range completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sum []float64
	found := 0

	for _, id := range ids {
		entry, err := s.units.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// Unit not embedded (unpublished since, or ingested without
			// unit embeddings). Skip it.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load unit embedding %s: %w", id, err)
		}

		if sum == nil {
			sum = make([]float64, len(entry.Embedding))
		}
		for i, v := range entry.Embedding {
			sum[i] += float64(v)
		}
		found++
	}

	if found == 0 {
		return nil, nil
	}
	centroid := make([]float32, len(sum))
	for i, v := range sum {
		centroid[i] = float32(v / float64(found))
	}

	// Over-fetch: completed units come back as their own nearest
	// neighbours and are filtered out below.
	hits, err := s.units.Query(ctx, centroid, limit+len(completed), nil)
	if err != nil {
		return nil, fmt.Errorf("query unit index: %w", err)
	}

	scores := make([]domain.RecommendationScore, 0, limit)
	for _, hit := range hits {
		if completed[hit.Entry.UnitID] {
			continue
		}
		scores = append(scores, domain.RecommendationScore{
			UnitID:    hit.Entry.UnitID,
			Score:     NormalizeScore(hit.Similarity),
			Rationale: domain.RationaleCentroid,
		})
		if len(scores) == limit {
			break
		}
	}
	return scores, nil
}

// recommendFallback returns unvisited units ordered by difficulty then
// creation time, with a descending positional score.
func (s *RecommendService) recommendFallback(ctx context.Context, completed map[string]bool, limit int) ([]domain.RecommendationScore, error) {
	units, err := s.content.ListPublishedUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published units: %w", err)
	}

	candidates := make([]domain.ContentUnit, 0, len(units))
	for _, u := range units {
		if !completed[u.ID] {
			candidates = append(candidates, u)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Difficulty.Rank(), candidates[j].Difficulty.Rank()
		if ri != rj {
			return ri < rj
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	scores := make([]domain.RecommendationScore, len(candidates))
	for i, u := range candidates {
		scores[i] = domain.RecommendationScore{
			UnitID:    u.ID,
			Score:     float64(len(candidates)-i) / float64(len(candidates)),
			Rationale: domain.RationaleDifficultyFallback,
		}
	}
	return scores, nil
}
