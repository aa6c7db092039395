package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in runes.
	Size int

	// Overlap is the number of runes shared between adjacent chunks.
	// Must be smaller than Size.
	Overlap int

	// BoundaryTolerance is how far back from a hard cut the chunker looks
	// for a whitespace break.
	BoundaryTolerance int
}

// RetrievalSettings holds retriever configuration.
type RetrievalSettings struct {
	// TopK is the default number of chunks returned per query.
	TopK int

	// MaxPerUnit caps how many chunks of one unit appear in the top-k,
	// preserving topical diversity.
	MaxPerUnit int

	// MinSimilarity is the normalised score a chunk must reach to count
	// as usable context.
	MinSimilarity float64
}

// AssistantSettings holds RAG orchestrator configuration.
type AssistantSettings struct {
	// Policy decides behaviour when retrieval finds no usable context.
	Policy ContextPolicy

	// HistoryBudget is the maximum characters of session history included
	// in the prompt. Older turns are dropped first.
	HistoryBudget int

	// MaxTokens bounds the completion length.
	MaxTokens int

	// Temperature controls generation randomness.
	Temperature float64

	// TimeoutSeconds bounds a single generation call.
	TimeoutSeconds int
}

// RecommendSettings holds recommendation engine configuration.
type RecommendSettings struct {
	// Limit is the default number of recommendations returned.
	Limit int

	// WarmIntervalMinutes is the period of the background warm job.
	// Zero disables it.
	WarmIntervalMinutes int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Chunking holds chunker settings.
	Chunking ChunkingSettings

	// Retrieval holds retriever settings.
	Retrieval RetrievalSettings

	// Assistant holds orchestrator settings.
	Assistant AssistantSettings

	// Recommend holds recommendation settings.
	Recommend RecommendSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users set them up via
// 'studyloop settings'.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Chunking: ChunkingSettings{
			Size:              1000,
			Overlap:           200,
			BoundaryTolerance: 80,
		},
		Retrieval: RetrievalSettings{
			TopK:          5,
			MaxPerUnit:    2,
			MinSimilarity: 0.55,
		},
		Assistant: AssistantSettings{
			Policy:         ContextPolicyDecline,
			HistoryBudget:  4000,
			MaxTokens:      1024,
			Temperature:    0.3,
			TimeoutSeconds: 60,
		},
		Recommend: RecommendSettings{
			Limit: 10,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-sonnet-4-5",
	}
}

// EmbeddingDimensions maps known embedding models to their vector sizes.
// The vector index validates writes against the provider's declared size.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
