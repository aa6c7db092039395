package driven

import "context"

// LLMService produces completions from a local or remote language model.
//
// The contract is a single blocking call returning the full completion;
// generation is the pipeline's dominant latency source and may block for
// the duration of model inference. A future provider can add incremental
// delivery through a new method without changing existing callers.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT family)
//   - Anthropic (Claude)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	// Fails with domain.ErrProviderUnavailable, domain.ErrGenerationTimeout
	// or domain.ErrModelNotFound.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation. Same failure modes as
	// Generate.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
