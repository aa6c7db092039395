package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure QuizService implements the interface.
var _ driving.QuizGenerator = (*QuizService)(nil)

// DefaultQuizQuestions is how many questions a quiz gets when the caller
// does not say.
const DefaultQuizQuestions = 5

const (
	// quizContextBudget caps the context passed to the model, in runes.
	quizContextBudget = 3000

	// quizEnrichThreshold is the body length below which retrieval is
	// used to supplement the quiz context.
	quizEnrichThreshold = 100

	// quizRetrievalK is how many chunks the enrichment pass fetches.
	quizRetrievalK = 3

	// Generation stays near-deterministic so the JSON contract holds;
	// feedback runs warmer for a conversational register.
	quizMaxTokens       = 2000
	quizTemperature     = 0.3
	feedbackMaxTokens   = 500
	feedbackTemperature = 0.7
)

// Fallback prompts used when no prompt store is configured.
const (
	fallbackQuizSystem = `You are an educational assistant that creates accurate, relevant quizzes from course material. Output ONLY valid JSON, no prose and no code fences.`

	fallbackFeedbackSystem = `You are a supportive and knowledgeable tutor. If the answer is correct, congratulate the learner and reinforce the concept. If incorrect, explain why without being discouraging and guide them to the correct understanding.`
)

// QuizService generates multiple-choice quizzes over content units and
// grades learner answers with generated feedback.
type QuizService struct {
	content   driven.ContentStore
	retriever driving.Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
}

// NewQuizService creates a new quiz service.
// retriever and prompts may be nil; retrieval enrichment is skipped and
// embedded fallback prompts are used then.
func NewQuizService(
	content driven.ContentStore,
	retriever driving.Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *QuizService {
	return &QuizService{
		content:   content,
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
	}
}

// quizPayload is the JSON shape the model is instructed to return.
type quizPayload struct {
	Questions []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
	} `json:"questions"`
}

// Generate builds a quiz from the unit's body, enriched by retrieval
// when the body alone is too thin to question.
func (s *QuizService) Generate(ctx context.Context, unitID string, opts driving.QuizOptions) (*domain.Quiz, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(unitID) == "" {
		return nil, fmt.Errorf("%w: unit ID is required", domain.ErrInvalidInput)
	}

	count := opts.Questions
	if count == 0 {
		count = DefaultQuizQuestions
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d",
			domain.ErrInvalidInput, count)
	}

	unit, err := s.content.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("load unit %s: %w", unitID, err)
	}

	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = unit.Difficulty
	}
	if difficulty.Rank() > domain.DifficultyAdvanced.Rank() {
		difficulty = domain.DifficultyIntermediate
	}

	material := s.quizContext(ctx, unit)

	messages := []driven.ChatMessage{
		{Role: domain.RoleSystem, Content: s.loadPrompt(driven.PromptQuizSystem, fallbackQuizSystem)},
		{Role: domain.RoleUser, Content: composeQuizPrompt(difficulty, count, material)},
	}
	response, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   quizMaxTokens,
		Temperature: quizTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate quiz for %s: %w", unitID, err)
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &payload); err != nil {
		logger.Error("quiz response for %s is not valid JSON: %v", unitID, err)
		return nil, fmt.Errorf("quiz response is not valid JSON: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("quiz response for %s contains no questions", unitID)
	}

	quiz := &domain.Quiz{
		UnitID:     unitID,
		Difficulty: difficulty,
		Questions:  make([]domain.QuizQuestion, 0, len(payload.Questions)),
	}
	for _, q := range payload.Questions {
		quiz.Questions = append(quiz.Questions, domain.QuizQuestion{
			Question:    q.Question,
			Options:     q.Options,
			Answer:      q.CorrectAnswer,
			Explanation: q.Explanation,
		})
	}
	return quiz, nil
}

// Evaluate grades the answer locally and asks the model for tutoring
// feedback.
func (s *QuizService) Evaluate(ctx context.Context, question, userAnswer, correctAnswer string) (*domain.QuizFeedback, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(question) == "" || strings.TrimSpace(correctAnswer) == "" {
		return nil, fmt.Errorf("%w: question and correct answer are required", domain.ErrEmptyInput)
	}

	correct := strings.EqualFold(
		strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))

	var b strings.Builder
	b.WriteString("The learner answered a quiz question.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Learner answer: %s\n", userAnswer)
	fmt.Fprintf(&b, "Correct answer: %s\n", correctAnswer)

	messages := []driven.ChatMessage{
		{Role: domain.RoleSystem, Content: s.loadPrompt(driven.PromptFeedbackSystem, fallbackFeedbackSystem)},
		{Role: domain.RoleUser, Content: b.String()},
	}
	feedback, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   feedbackMaxTokens,
		Temperature: feedbackTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	return &domain.QuizFeedback{
		Correct:  correct,
		Feedback: feedback,
	}, nil
}

// loadPrompt loads a prompt from the store, falling back to the embedded
// default if unavailable.
func (s *QuizService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// quizContext assembles the source text: the unit body, supplemented by
// retrieved chunks of the same unit when the body is too short, capped
// to the context budget.
func (s *QuizService) quizContext(ctx context.Context, unit *domain.ContentUnit) string {
	text := unit.Body

	if len([]rune(text)) < quizEnrichThreshold && s.retriever != nil {
		results, err := s.retriever.Retrieve(ctx, "concepts in "+unit.Title, driving.RetrieveOptions{
			K:          quizRetrievalK,
			ModulePath: unit.ModulePath,
		})
		if err != nil {
			logger.Warn("quiz enrichment retrieval failed (%v), using body only", err)
		}
		for _, r := range results {
			if r.UnitID != unit.ID {
				continue
			}
			text += "\n" + r.Text
		}
	}

	runes := []rune(text)
	if len(runes) > quizContextBudget {
		runes = runes[:quizContextBudget]
	}
	return string(runes)
}

// composeQuizPrompt renders the generation request and the JSON contract.
func composeQuizPrompt(difficulty domain.Difficulty, count int, material string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a %s level quiz with %d multiple-choice questions based on the following text.\n\n", difficulty, count)
	b.WriteString("Text content:\n")
	b.WriteString(material)
	b.WriteString("\n\nReturn the response ONLY as a valid JSON object with this structure:\n")
	b.WriteString(`{
  "questions": [
    {
      "question": "Question text here",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": "Option A",
      "explanation": "Why this is correct"
    }
  ]
}`)
	return b.String()
}

// stripCodeFence removes a surrounding markdown code fence, which models
// add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
