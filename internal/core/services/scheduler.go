package services

import (
	"context"
	"time"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure SchedulerService implements the interface.
var _ driving.Scheduler = (*SchedulerService)(nil)

// SchedulerService periodically warms recommendations for all active
// users so the first request after a content change doesn't pay the
// full scoring cost.
type SchedulerService struct {
	recommender driving.Recommender
	progress    driven.ProgressStore
	settings    domain.RecommendSettings
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(
	recommender driving.Recommender,
	progress driven.ProgressStore,
	settings domain.RecommendSettings,
) *SchedulerService {
	return &SchedulerService{
		recommender: recommender,
		progress:    progress,
		settings:    settings,
	}
}

// Run blocks, warming recommendations every interval until the context
// is cancelled. A zero interval disables the loop.
func (s *SchedulerService) Run(ctx context.Context) error {
	if s.settings.WarmIntervalMinutes <= 0 {
		logger.Info("recommendation warm job disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	interval := time.Duration(s.settings.WarmIntervalMinutes) * time.Minute
	logger.Info("recommendation warm job running every %s", interval)

	// Warm once at startup, then on every tick.
	if err := s.WarmAll(ctx); err != nil {
		logger.Warn("initial warm pass failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.WarmAll(ctx); err != nil {
				logger.Warn("warm pass failed: %v", err)
			}
		}
	}
}

// WarmAll runs one warm pass over all active users. Per-user failures
// are logged and skipped so one broken user doesn't starve the rest.
func (s *SchedulerService) WarmAll(ctx context.Context) error {
	userIDs, err := s.progress.ActiveUserIDs(ctx)
	if err != nil {
		return err
	}

	logger.Section("Warm recommendations")
	warmed := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.recommender.Recommend(ctx, userID, domain.RecommendationNextContent, 0)
		if err != nil {
			logger.Error("warm recommendations for %s: %v", userID, err)
			continue
		}
		warmed++
	}

	logger.Info("warmed recommendations for %d/%d users", warmed, len(userIDs))
	return nil
}
