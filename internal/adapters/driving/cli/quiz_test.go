package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

func TestQuizCmd_Use(t *testing.T) {
	assert.Equal(t, "quiz [unit-id]", quizCmd.Use)
}

func TestQuizCmd_PrintsQuestionsWithoutAnswers(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"quiz", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Quiz for loops-101 (beginner):")
	assert.Contains(t, out, "1. What does a for loop do?")
	assert.Contains(t, out, "a) Repeats statements")
	assert.Contains(t, out, "b) Declares a variable")
	assert.NotContains(t, out, "Answer:")
}

func TestQuizCmd_AnswersFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"quiz", "--answers", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
		quizAnswers = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Answer: Repeats statements")
	assert.Contains(t, buf.String(), "A for loop iterates over a sequence.")
}

func TestQuizCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"quiz", "--json", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
		quizJSON = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"UnitID\"")
	assert.Contains(t, buf.String(), "loops-101")
}

func TestQuizCmd_FlagsForwarded(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"quiz", "--count", "3", "--difficulty", "advanced", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
		quizCount = 0
		quizDifficulty = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	mock := quizService.(*mockQuiz)
	assert.Equal(t, "loops-101", mock.lastUnitID)
	assert.Equal(t, 3, mock.lastOpts.Questions)
	assert.Equal(t, domain.DifficultyAdvanced, mock.lastOpts.Difficulty)
}

func TestQuizCmd_RejectsUnknownDifficulty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"quiz", "--difficulty", "brutal", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
		quizDifficulty = ""
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown difficulty")
}

func TestQuizCmd_TakeGradesAnswers(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("a\nb\n"))
	rootCmd.SetArgs([]string{"quiz", "--take", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		quizTake = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Correct!")
	assert.Contains(t, out, "Not quite, the answer is: break")
	assert.Contains(t, out, "Remember: break exits the enclosing loop.")
	assert.Contains(t, out, "Score: 1/2")
}

func TestQuizCmd_ServiceNotConfigured(t *testing.T) {
	oldService := quizService
	quizService = nil
	defer func() {
		quizService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"quiz", "loops-101"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quiz service not configured")
}

func TestQuizCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	quizService = &mockQuiz{err: domain.ErrNotFound}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"quiz", "ghost"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quiz failed")
}
