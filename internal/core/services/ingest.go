package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/studyloop/studyloop-cli/internal/chunker"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// unitEmbeddingHead caps how much of a unit's body joins the title in the
// unit-level embedding. Whole-unit embeddings drive recommendations, and
// the opening of a unit carries most of its topical signal.
const unitEmbeddingHead = 2000

// DefaultEmbedRate is the default embedding calls allowed per second.
// Local Ollama saturates around this; cloud providers rate-limit anyway.
const DefaultEmbedRate = 10

// IngestService builds the vector indexes from the content collaborator:
// it chunks published units, embeds the chunks and upserts them into the
// chunk index, optionally embedding whole units for recommendations.
type IngestService struct {
	content  driven.ContentStore
	embedder driven.EmbeddingService
	chunks   driven.VectorIndex
	units    driven.VectorIndex
	splitter *chunker.Chunker
	limiter  *rate.Limiter

	running atomic.Bool
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithEmbedRate caps embedding calls per second.
func WithEmbedRate(perSecond float64) IngestOption {
	return func(s *IngestService) {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewIngestService creates a new ingest service.
// unitIndex may be nil when whole-unit embeddings are not needed.
func NewIngestService(
	content driven.ContentStore,
	embedder driven.EmbeddingService,
	chunkIndex driven.VectorIndex,
	unitIndex driven.VectorIndex,
	splitter *chunker.Chunker,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		content:  content,
		embedder: embedder,
		chunks:   chunkIndex,
		units:    unitIndex,
		splitter: splitter,
		limiter:  rate.NewLimiter(rate.Limit(DefaultEmbedRate), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rebuild runs one ingestion pass. Units that fail to embed or index are
// logged and skipped; the run continues. Configuration problems and
// dimension mismatches abort, since every further unit would fail the
// same way.
func (s *IngestService) Rebuild(ctx context.Context, opts driving.IngestOptions) (*driving.IngestSummary, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.chunks == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if opts.ComputeSimilarity && s.units == nil {
		return nil, fmt.Errorf("%w: no unit-level index configured", domain.ErrVectorIndexUnavailable)
	}

	// Single writer at a time.
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrIngestInProgress
	}
	defer s.running.Store(false)

	summary := &driving.IngestSummary{RunID: uuid.NewString()}
	start := time.Now()

	logger.Section("Ingest " + summary.RunID)

	if opts.Clear {
		if err := s.chunks.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear chunk index: %w", err)
		}
		if s.units != nil {
			if err := s.units.Clear(ctx); err != nil {
				return nil, fmt.Errorf("clear unit index: %w", err)
			}
		}
		logger.Info("cleared existing index entries")
	}

	units, err := s.content.ListPublishedUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published units: %w", err)
	}
	logger.Info("found %d published units", len(units))

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		// Incremental runs skip units already represented.
		if !opts.Clear && !opts.Force {
			exists, err := s.chunks.ContainsUnit(ctx, unit.ID)
			if err != nil {
				return summary, fmt.Errorf("check unit %s: %w", unit.ID, err)
			}
			if exists {
				summary.UnitsSkipped++
				logger.Debug("unit %s already indexed, skipping", unit.ID)
				continue
			}
		}

		indexed, err := s.ingestUnit(ctx, unit, opts.ComputeSimilarity)
		if err != nil {
			if isFatalIngestError(err) {
				summary.Duration = time.Since(start)
				return summary, fmt.Errorf("ingest unit %s: %w", unit.ID, err)
			}
			logger.Error("unit %s failed, skipping: %v", unit.ID, err)
			summary.FailedUnitIDs = append(summary.FailedUnitIDs, unit.ID)
			continue
		}

		summary.UnitsProcessed++
		summary.ChunksIndexed += indexed
	}

	buildTime := time.Now()
	if err := s.chunks.SetBuildTime(ctx, buildTime); err != nil {
		return summary, fmt.Errorf("record build time: %w", err)
	}
	if opts.ComputeSimilarity {
		if err := s.units.SetBuildTime(ctx, buildTime); err != nil {
			return summary, fmt.Errorf("record unit build time: %w", err)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("ingested %d units (%d chunks, %d skipped, %d failed) in %s",
		summary.UnitsProcessed, summary.ChunksIndexed, summary.UnitsSkipped,
		len(summary.FailedUnitIDs), summary.Duration)

	return summary, nil
}

// ingestUnit chunks, embeds and indexes one unit. Returns the number of
// chunk entries written.
func (s *IngestService) ingestUnit(ctx context.Context, unit domain.ContentUnit, withUnitEmbedding bool) (int, error) {
	chunks := s.splitter.Split(unit.ID, unit.Body)
	if len(chunks) == 0 {
		logger.Debug("unit %s has no content, nothing to index", unit.ID)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d texts, %d vectors",
			len(chunks), len(embeddings))
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{
			ID:         c.ID,
			UnitID:     c.UnitID,
			ModulePath: unit.ModulePath,
			Seq:        c.Seq,
			Text:       c.Text,
			Embedding:  embeddings[i],
		}
	}

	if err := s.chunks.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	logger.Debug("unit %s: indexed %d chunks", unit.ID, len(entries))

	if withUnitEmbedding {
		if err := s.ingestUnitEmbedding(ctx, unit); err != nil {
			return 0, err
		}
	}

	return len(entries), nil
}

// ingestUnitEmbedding embeds the unit as a whole into the unit-level index.
func (s *IngestService) ingestUnitEmbedding(ctx context.Context, unit domain.ContentUnit) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	embedding, err := s.embedder.Embed(ctx, unitEmbeddingText(unit))
	if err != nil {
		return fmt.Errorf("embed unit: %w", err)
	}

	entry := domain.IndexEntry{
		ID:         unit.ID,
		UnitID:     unit.ID,
		ModulePath: unit.ModulePath,
		Text:       unit.Title,
		Embedding:  embedding,
	}
	if err := s.units.Upsert(ctx, []domain.IndexEntry{entry}); err != nil {
		return fmt.Errorf("index unit embedding: %w", err)
	}
	return nil
}

// Stats reports the current index state.
func (s *IngestService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	if s.chunks == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	stats := &domain.IndexStats{}

	count, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	stats.EntryCount = count

	dims, err := s.chunks.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	stats.Dimensions = dims

	buildTime, err := s.chunks.BuildTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("read build time: %w", err)
	}
	stats.LastBuildTime = buildTime

	if s.units != nil {
		unitCount, err := s.units.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count unit entries: %w", err)
		}
		stats.UnitEntryCount = unitCount
	}

	return stats, nil
}

// unitEmbeddingText builds the text embedded for a whole unit: the title
// plus the head of the body.
func unitEmbeddingText(unit domain.ContentUnit) string {
	body := []rune(unit.Body)
	if len(body) > unitEmbeddingHead {
		body = body[:unitEmbeddingHead]
	}
	if unit.Title == "" {
		return string(body)
	}
	return unit.Title + "\n\n" + string(body)
}

// isFatalIngestError reports whether an ingest failure would repeat for
// every subsequent unit.
func isFatalIngestError(err error) bool {
	return errors.Is(err, domain.ErrInvalidConfiguration) ||
		errors.Is(err, domain.ErrDimensionMismatch)
}
