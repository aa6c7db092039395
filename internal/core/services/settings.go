package services

import (
	"fmt"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyBoundaryTolerance = "chunking.boundary_tolerance"

	keyTopK          = "retrieval.top_k"
	keyMaxPerUnit    = "retrieval.max_per_unit"
	keyMinSimilarity = "retrieval.min_similarity"

	keyPolicy         = "assistant.policy"
	keyHistoryBudget  = "assistant.history_budget"
	keyMaxTokens      = "assistant.max_tokens"
	keyTemperature    = "assistant.temperature"
	keyTimeoutSeconds = "assistant.timeout_seconds"

	keyRecommendLimit = "recommend.limit"
	keyWarmInterval   = "recommend.warm_interval_minutes"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			Size:              s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap:           s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
			BoundaryTolerance: s.getInt(keyBoundaryTolerance, defaults.Chunking.BoundaryTolerance),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:          s.getInt(keyTopK, defaults.Retrieval.TopK),
			MaxPerUnit:    s.getInt(keyMaxPerUnit, defaults.Retrieval.MaxPerUnit),
			MinSimilarity: s.getFloat(keyMinSimilarity, defaults.Retrieval.MinSimilarity),
		},
		Assistant: domain.AssistantSettings{
			Policy:         s.getPolicy(defaults.Assistant.Policy),
			HistoryBudget:  s.getInt(keyHistoryBudget, defaults.Assistant.HistoryBudget),
			MaxTokens:      s.getInt(keyMaxTokens, defaults.Assistant.MaxTokens),
			Temperature:    s.getFloat(keyTemperature, defaults.Assistant.Temperature),
			TimeoutSeconds: s.getInt(keyTimeoutSeconds, defaults.Assistant.TimeoutSeconds),
		},
		Recommend: domain.RecommendSettings{
			Limit:               s.getInt(keyRecommendLimit, defaults.Recommend.Limit),
			WarmIntervalMinutes: s.getInt(keyWarmInterval, defaults.Recommend.WarmIntervalMinutes),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	pairs := []struct {
		key string
		val any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyBoundaryTolerance, settings.Chunking.BoundaryTolerance},
		{keyTopK, settings.Retrieval.TopK},
		{keyMaxPerUnit, settings.Retrieval.MaxPerUnit},
		{keyMinSimilarity, settings.Retrieval.MinSimilarity},
		{keyPolicy, string(settings.Assistant.Policy)},
		{keyHistoryBudget, settings.Assistant.HistoryBudget},
		{keyMaxTokens, settings.Assistant.MaxTokens},
		{keyTemperature, settings.Assistant.Temperature},
		{keyTimeoutSeconds, settings.Assistant.TimeoutSeconds},
		{keyRecommendLimit, settings.Recommend.Limit},
		{keyWarmInterval, settings.Recommend.WarmIntervalMinutes},
	}

	for _, p := range pairs {
		if err := s.configStore.Set(p.key, p.val); err != nil {
			return fmt.Errorf("save %s: %w", p.key, err)
		}
	}

	// API keys are only written when present so an accidental empty save
	// doesn't wipe stored credentials.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s",
			domain.ErrInvalidConfiguration, provider)
	}

	// Validate provider supports embeddings
	supported := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: provider %s does not support embeddings",
			domain.ErrInvalidConfiguration, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s",
			domain.ErrInvalidConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// Local providers need a base URL; cloud providers use their fixed one.
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s",
			domain.ErrInvalidConfiguration, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s",
			domain.ErrInvalidConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetContextPolicy updates the assistant's no-context behaviour.
func (s *SettingsService) SetContextPolicy(policy domain.ContextPolicy) error {
	if !policy.IsValid() {
		return fmt.Errorf("%w: invalid context policy: %s",
			domain.ErrInvalidConfiguration, policy)
	}
	return s.configStore.Set(keyPolicy, string(policy))
}

// Validate checks if current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidConfiguration)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, size)", domain.ErrInvalidConfiguration)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval top_k must be positive", domain.ErrInvalidConfiguration)
	}
	if settings.Retrieval.MinSimilarity < 0 || settings.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [0, 1]", domain.ErrInvalidConfiguration)
	}
	if !settings.Assistant.Policy.IsValid() {
		return fmt.Errorf("%w: invalid context policy: %s",
			domain.ErrInvalidConfiguration, settings.Assistant.Policy)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getPolicy(defaultVal domain.ContextPolicy) domain.ContextPolicy {
	val := s.configStore.GetString(keyPolicy)
	if val == "" {
		return defaultVal
	}
	policy := domain.ContextPolicy(val)
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}
