package driving

import (
	"context"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

// Assistant is the chat-facing surface: it grounds a learner's question in
// retrieved course material and returns an answer with citations.
type Assistant interface {
	// Answer retrieves context for the query, composes a grounded prompt
	// and invokes the generation provider. Provider outages and timeouts
	// never escape as errors: after one degraded retry the answer comes
	// back with Unavailable set.
	Answer(ctx context.Context, query string, history []domain.ChatTurn, opts AnswerOptions) (*domain.Answer, error)
}

// AnswerOptions configures a single answer.
type AnswerOptions struct {
	// K overrides the number of context chunks (0 = configured default).
	K int

	// ModulePath restricts retrieval to one structural path when set.
	ModulePath string
}
