package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{
			name:     "ollama is valid",
			provider: AIProviderOllama,
			expected: true,
		},
		{
			name:     "openai is valid",
			provider: AIProviderOpenAI,
			expected: true,
		},
		{
			name:     "anthropic is valid",
			provider: AIProviderAnthropic,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			provider: AIProvider(""),
			expected: false,
		},
		{
			name:     "unknown provider is invalid",
			provider: AIProvider("gemini-flash"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{
			name:     "unconfigured",
			settings: EmbeddingSettings{},
			expected: false,
		},
		{
			name:     "ollama without key",
			settings: EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text"},
			expected: true,
		},
		{
			name:     "openai without key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI, Model: "text-embedding-3-small"},
			expected: false,
		},
		{
			name: "openai with key",
			settings: EmbeddingSettings{
				Provider: AIProviderOpenAI,
				Model:    "text-embedding-3-small",
				APIKey:   "sk-test",
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	// Providers stay unconfigured until the user sets them up.
	assert.False(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())

	// Chunking defaults must satisfy the overlap < size invariant.
	assert.Greater(t, s.Chunking.Size, 0)
	assert.Less(t, s.Chunking.Overlap, s.Chunking.Size)

	assert.Equal(t, 5, s.Retrieval.TopK)
	assert.Equal(t, 2, s.Retrieval.MaxPerUnit)
	assert.Equal(t, ContextPolicyDecline, s.Assistant.Policy)
}

func TestEmbeddingDimensions_KnownModels(t *testing.T) {
	dims := EmbeddingDimensions()

	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])
	assert.Zero(t, dims["unknown-model"])
}
