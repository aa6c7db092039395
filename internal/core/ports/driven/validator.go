package driven

import "github.com/studyloop/studyloop-cli/internal/core/domain"

// AIConfigValidator validates AI provider configurations by contacting
// the provider. Used by the settings flow to catch bad credentials or
// unreachable endpoints at configuration time rather than first use.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration.
	ValidateLLM(config *domain.LLMSettings) error
}
