package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configmem "github.com/studyloop/studyloop-cli/internal/adapters/driven/config/memory"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
)

func TestSettings_GetReturnsDefaultsOnEmptyStore(t *testing.T) {
	svc := NewSettingsService(configmem.NewConfigStore(), nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Chunking, settings.Chunking)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Assistant, settings.Assistant)
	assert.Equal(t, defaults.Recommend, settings.Recommend)
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
}

func TestSettings_StoredValuesOverrideDefaults(t *testing.T) {
	store := configmem.NewConfigStore()
	require.NoError(t, store.Set("chunking.size", 500))
	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Set("retrieval.min_similarity", 0.7))
	require.NoError(t, store.Set("assistant.policy", "general"))

	svc := NewSettingsService(store, nil)
	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, 500, settings.Chunking.Size)
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.InDelta(t, 0.7, settings.Retrieval.MinSimilarity, 1e-9)
	assert.Equal(t, domain.ContextPolicyGeneral, settings.Assistant.Policy)
}

func TestSettings_ExplicitZeroIsNotTreatedAsUnset(t *testing.T) {
	store := configmem.NewConfigStore()
	require.NoError(t, store.Set("retrieval.max_per_unit", 0))
	require.NoError(t, store.Set("assistant.history_budget", 0))

	svc := NewSettingsService(store, nil)
	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Zero(t, settings.Retrieval.MaxPerUnit)
	assert.Zero(t, settings.Assistant.HistoryBudget)
}

func TestSettings_SaveRoundTrips(t *testing.T) {
	store := configmem.NewConfigStore()
	svc := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  "http://localhost:11434",
	}
	settings.Chunking.Size = 800
	require.NoError(t, svc.Save(&settings))

	loaded, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, settings.Embedding, loaded.Embedding)
	assert.Equal(t, 800, loaded.Chunking.Size)
}

func TestSettings_EmptyAPIKeyDoesNotWipeStoredKey(t *testing.T) {
	store := configmem.NewConfigStore()
	require.NoError(t, store.Set("llm.api_key", "sk-stored"))

	svc := NewSettingsService(store, nil)
	settings, err := svc.Get()
	require.NoError(t, err)
	require.Equal(t, "sk-stored", settings.LLM.APIKey)

	settings.LLM.APIKey = ""
	require.NoError(t, svc.Save(settings))

	assert.Equal(t, "sk-stored", store.GetString("llm.api_key"))
}

func TestSetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		model    string
		apiKey   string
		wantErr  bool
	}{
		{
			name:     "ollama needs no key",
			provider: domain.AIProviderOllama,
		},
		{
			name:     "openai with key",
			provider: domain.AIProviderOpenAI,
			apiKey:   "sk-test",
		},
		{
			name:     "openai without key",
			provider: domain.AIProviderOpenAI,
			wantErr:  true,
		},
		{
			name:     "anthropic has no embeddings",
			provider: domain.AIProviderAnthropic,
			apiKey:   "sk-ant",
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			provider: domain.AIProvider("bogus"),
			wantErr:  true,
		},
		{
			name:     "explicit model overrides default",
			provider: domain.AIProviderOllama,
			model:    "all-minilm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSettingsService(configmem.NewConfigStore(), nil)

			err := svc.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)

			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)

			wantModel := tt.model
			if wantModel == "" {
				wantModel = domain.DefaultEmbeddingModels()[tt.provider]
			}
			assert.Equal(t, wantModel, settings.Embedding.Model)

			if tt.provider.IsLocal() {
				assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
			} else {
				assert.Empty(t, settings.Embedding.BaseURL)
			}
		})
	}
}

func TestSetLLMProvider(t *testing.T) {
	svc := NewSettingsService(configmem.NewConfigStore(), nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Equal(t, "sk-ant", settings.LLM.APIKey)
	assert.Empty(t, settings.LLM.BaseURL)

	err = svc.SetLLMProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSetContextPolicy(t *testing.T) {
	store := configmem.NewConfigStore()
	svc := NewSettingsService(store, nil)

	require.NoError(t, svc.SetContextPolicy(domain.ContextPolicyGeneral))
	assert.Equal(t, "general", store.GetString("assistant.policy"))

	err := svc.SetContextPolicy(domain.ContextPolicy("whatever"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   map[string]any
		wantErr bool
	}{
		{name: "defaults are valid"},
		{
			name:    "zero chunk size",
			setup:   map[string]any{"chunking.size": 0},
			wantErr: true,
		},
		{
			name:    "overlap not below size",
			setup:   map[string]any{"chunking.size": 100, "chunking.overlap": 100},
			wantErr: true,
		},
		{
			name:    "non-positive top_k",
			setup:   map[string]any{"retrieval.top_k": -1},
			wantErr: true,
		},
		{
			name:    "similarity above one",
			setup:   map[string]any{"retrieval.min_similarity": 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := configmem.NewConfigStore()
			for k, v := range tt.setup {
				require.NoError(t, store.Set(k, v))
			}

			err := NewSettingsService(store, nil).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
