package driving

import (
	"context"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// QuizGenerator creates quizzes from course content and grades answers.
type QuizGenerator interface {
	// Generate builds a multiple-choice quiz for a content unit.
	Generate(ctx context.Context, unitID string, opts QuizOptions) (*domain.Quiz, error)

	// Evaluate grades a learner's answer and generates tutoring feedback.
	Evaluate(ctx context.Context, question, userAnswer, correctAnswer string) (*domain.QuizFeedback, error)
}

// QuizOptions configures quiz generation.
type QuizOptions struct {
	// Questions is how many questions to generate (0 = default).
	Questions int

	// Difficulty overrides the unit's own difficulty level when set.
	Difficulty domain.Difficulty
}
