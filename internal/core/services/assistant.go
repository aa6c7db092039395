package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
	"github.com/studyloop/studyloop-cli/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// degradedChunkLimit is how many context chunks survive the degraded
// retry after a provider failure. Smaller prompts are likelier to finish
// within the deadline.
const degradedChunkLimit = 2

// unavailableMessage is shown when generation fails even after the
// degraded retry.
const unavailableMessage = "The assistant is unavailable right now. Your question was not answered; please try again in a moment."

// Fallback prompts used when no prompt store is configured.
const (
	fallbackAnswerSystem = `You are a study assistant. Answer the learner's question using ONLY the provided course excerpts. Cite excerpts by their bracketed numbers. If the excerpts don't cover the question, say so.`

	fallbackGeneralSystem = `You are a study assistant. No course material matched the question; answer briefly from general knowledge and say the answer is not based on course content.`

	fallbackDecline = `I couldn't find course material relevant to that question. Try rephrasing, or browse the course modules to see what's covered.`
)

// AssistantService grounds learner questions in retrieved course material
// and generates cited answers.
type AssistantService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.AssistantSettings
	retrieval domain.RetrievalSettings
}

// NewAssistantService creates a new assistant service.
// prompts may be nil; embedded fallback prompts are used then.
func NewAssistantService(
	retriever driving.Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.AssistantSettings,
	retrieval domain.RetrievalSettings,
) *AssistantService {
	return &AssistantService{
		retriever: retriever,
		llm:       llm,
		prompts:   prompts,
		settings:  settings,
		retrieval: retrieval,
	}
}

// Answer retrieves context for the query, composes a grounded prompt and
// invokes the generation provider. Provider outages and timeouts never
// escape as errors: after one degraded retry the answer comes back with
// Unavailable set.
func (s *AssistantService) Answer(ctx context.Context, query string, history []domain.ChatTurn, opts driving.AnswerOptions) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrEmptyInput)
	}

	chunks, err := s.retrieveContext(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return s.answerWithoutContext(ctx, query, history)
	}

	answer, err := s.generate(ctx, query, history, chunks, driven.PromptAnswerSystem)
	if err == nil {
		return &domain.Answer{
			Text:      answer,
			Citations: citations(chunks),
		}, nil
	}
	if !domain.IsRecoverable(err) {
		return nil, err
	}

	// Degraded retry: no history, fewer chunks.
	logger.Warn("generation failed (%v), retrying degraded", err)
	degraded := chunks
	if len(degraded) > degradedChunkLimit {
		degraded = degraded[:degradedChunkLimit]
	}

	answer, err = s.generate(ctx, query, nil, degraded, driven.PromptAnswerSystem)
	if err != nil {
		logger.Error("degraded retry failed: %v", err)
		return &domain.Answer{
			Text:        unavailableMessage,
			Unavailable: true,
		}, nil
	}

	return &domain.Answer{
		Text:      answer,
		Citations: citations(degraded),
	}, nil
}

// retrieveContext fetches chunks above the similarity threshold. A
// recoverable retrieval failure degrades to no context instead of
// failing the whole answer.
func (s *AssistantService) retrieveContext(ctx context.Context, query string, opts driving.AnswerOptions) ([]domain.RetrievalResult, error) {
	if s.retriever == nil {
		return nil, nil
	}

	results, err := s.retriever.Retrieve(ctx, query, driving.RetrieveOptions{
		K:          opts.K,
		ModulePath: opts.ModulePath,
	})
	if err != nil {
		if domain.IsRecoverable(err) {
			logger.Warn("retrieval failed (%v), answering without context", err)
			return nil, nil
		}
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	usable := results[:0]
	for _, r := range results {
		if r.Score >= s.retrieval.MinSimilarity {
			usable = append(usable, r)
		}
	}
	logger.Debug("assistant: %d of %d chunks above threshold %.2f",
		len(usable), len(results), s.retrieval.MinSimilarity)
	return usable, nil
}

// answerWithoutContext applies the configured context policy.
func (s *AssistantService) answerWithoutContext(ctx context.Context, query string, history []domain.ChatTurn) (*domain.Answer, error) {
	if s.settings.Policy != domain.ContextPolicyGeneral {
		// Decline is the default for unset or unknown policies.
		return &domain.Answer{
			Text:      s.loadPrompt(driven.PromptDecline, fallbackDecline),
			NoContext: true,
		}, nil
	}

	answer, err := s.generate(ctx, query, history, nil, driven.PromptGeneralSystem)
	if err == nil {
		return &domain.Answer{Text: answer, NoContext: true}, nil
	}
	if !domain.IsRecoverable(err) {
		return nil, err
	}

	answer, err = s.generate(ctx, query, nil, nil, driven.PromptGeneralSystem)
	if err != nil {
		logger.Error("degraded retry failed: %v", err)
		return &domain.Answer{
			Text:        unavailableMessage,
			NoContext:   true,
			Unavailable: true,
		}, nil
	}
	return &domain.Answer{Text: answer, NoContext: true}, nil
}

// generate composes the chat messages and calls the provider under the
// configured deadline.
func (s *AssistantService) generate(
	ctx context.Context,
	query string,
	history []domain.ChatTurn,
	chunks []domain.RetrievalResult,
	systemPromptName string,
) (string, error) {
	fallback := fallbackAnswerSystem
	if systemPromptName == driven.PromptGeneralSystem {
		fallback = fallbackGeneralSystem
	}

	messages := []driven.ChatMessage{
		{Role: domain.RoleSystem, Content: s.loadPrompt(systemPromptName, fallback)},
	}
	for _, turn := range trimHistory(history, s.settings.HistoryBudget) {
		messages = append(messages, driven.ChatMessage{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    domain.RoleUser,
		Content: composeUserPrompt(query, chunks),
	})

	if s.settings.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.settings.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	return s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
}

// loadPrompt loads a prompt from the store, falling back to the embedded
// default if unavailable.
func (s *AssistantService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// composeUserPrompt renders the excerpts block and the question.
func composeUserPrompt(query string, chunks []domain.RetrievalResult) string {
	if len(chunks) == 0 {
		return query
	}

	var b strings.Builder
	b.WriteString("Course excerpts:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] (module %s)\n%s\n\n", i+1, c.ModulePath, c.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// trimHistory keeps the newest turns whose combined length fits the
// budget. Oldest turns are dropped first.
func trimHistory(history []domain.ChatTurn, budget int) []domain.ChatTurn {
	if budget <= 0 || len(history) == 0 {
		return nil
	}

	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		used += len(history[i].Text)
		if used > budget {
			break
		}
		start = i
	}
	return history[start:]
}

// citations extracts unit IDs in rank order, deduplicated.
func citations(chunks []domain.RetrievalResult) []string {
	seen := make(map[string]bool, len(chunks))
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if seen[c.UnitID] {
			continue
		}
		seen[c.UnitID] = true
		ids = append(ids, c.UnitID)
	}
	return ids
}
