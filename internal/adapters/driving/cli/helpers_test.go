package cli

import (
	"context"
	"strings"
	"time"

	configmem "github.com/studyloop/studyloop-cli/internal/adapters/driven/config/memory"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/core/services"
)

// --- Test doubles for the injected services ---

type mockIngestor struct {
	summary *driving.IngestSummary
	stats   *domain.IndexStats
	err     error
	lastOpt driving.IngestOptions
}

func (m *mockIngestor) Rebuild(_ context.Context, opts driving.IngestOptions) (*driving.IngestSummary, error) {
	m.lastOpt = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockIngestor) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

type mockAssistant struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.AnswerOptions
}

func (m *mockAssistant) Answer(_ context.Context, _ string, _ []domain.ChatTurn, opts driving.AnswerOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockRecommender struct {
	scores []domain.RecommendationScore
	err    error
}

func (m *mockRecommender) Recommend(_ context.Context, _ string, _ domain.RecommendationKind, _ int) ([]domain.RecommendationScore, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

type mockQuiz struct {
	quiz       *domain.Quiz
	feedback   *domain.QuizFeedback
	err        error
	lastUnitID string
	lastOpts   driving.QuizOptions
}

func (m *mockQuiz) Generate(_ context.Context, unitID string, opts driving.QuizOptions) (*domain.Quiz, error) {
	m.lastUnitID = unitID
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.quiz, nil
}

func (m *mockQuiz) Evaluate(_ context.Context, _, userAnswer, correctAnswer string) (*domain.QuizFeedback, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.feedback != nil {
		return m.feedback, nil
	}
	return &domain.QuizFeedback{
		Correct:  strings.EqualFold(userAnswer, correctAnswer),
		Feedback: "Remember: break exits the enclosing loop.",
	}, nil
}

type mockScheduler struct {
	warmErr error
	warmed  bool
}

func (m *mockScheduler) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) WarmAll(_ context.Context) error {
	m.warmed = true
	return m.warmErr
}

// setupTestServices installs working mocks for every service and returns
// a cleanup that restores the previous state.
func setupTestServices() func() {
	oldIngest := ingestService
	oldRetriever := retrieverService
	oldAssistant := assistantService
	oldRecommend := recommendService
	oldScheduler := schedulerService
	oldQuiz := quizService
	oldSettings := settingsService
	oldConfig := configStore

	store := configmem.NewConfigStore()
	configStore = store
	settingsService = services.NewSettingsService(store, nil)

	ingestService = &mockIngestor{
		summary: &driving.IngestSummary{
			RunID:          "run-1",
			UnitsProcessed: 3,
			ChunksIndexed:  12,
			Duration:       1500 * time.Millisecond,
		},
		stats: &domain.IndexStats{
			EntryCount:     12,
			UnitEntryCount: 3,
			Dimensions:     768,
			LastBuildTime:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	assistantService = &mockAssistant{
		answer: &domain.Answer{
			Text:      "A loop repeats statements.",
			Citations: []string{"loops-101", "loops-201"},
		},
	}
	recommendService = &mockRecommender{
		scores: []domain.RecommendationScore{
			{UnitID: "unit-next", Score: 0.91, Rationale: domain.RationaleCentroid},
		},
	}
	schedulerService = &mockScheduler{}
	quizService = &mockQuiz{
		quiz: &domain.Quiz{
			UnitID:     "loops-101",
			Difficulty: domain.DifficultyBeginner,
			Questions: []domain.QuizQuestion{
				{
					Question:    "What does a for loop do?",
					Options:     []string{"Repeats statements", "Declares a variable"},
					Answer:      "Repeats statements",
					Explanation: "A for loop iterates over a sequence.",
				},
				{
					Question:    "Which keyword exits a loop early?",
					Options:     []string{"break", "pass"},
					Answer:      "break",
					Explanation: "break leaves the loop immediately.",
				},
			},
		},
	}
	retrieverService = nil

	return func() {
		ingestService = oldIngest
		retrieverService = oldRetriever
		assistantService = oldAssistant
		recommendService = oldRecommend
		schedulerService = oldScheduler
		quizService = oldQuiz
		settingsService = oldSettings
		configStore = oldConfig
	}
}
