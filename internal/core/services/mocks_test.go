package services

import (
	"context"
	"sync"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driving"
)

// --- Mock implementations shared by the service tests ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Vectors come from the byText map, or the default vector when unset.
type mockEmbeddingService struct {
	byText     map[string][]float32
	errByText  map[string]error
	defaultVec []float32
	embedErr   error
	dims       int
	calls      int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if err, ok := m.errByText[text]; ok {
		return nil, err
	}
	if v, ok := m.byText[text]; ok {
		return v, nil
	}
	return m.defaultVec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.defaultVec)
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService for testing.
// errs are consumed one per call, so a test can fail the first call and
// let the retry succeed.
type mockLLMService struct {
	mu       sync.Mutex
	response string
	errs     []error
	chats    [][]driven.ChatMessage
}

func (m *mockLLMService) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.Chat(ctx, []driven.ChatMessage{{Role: domain.RoleUser, Content: prompt}}, driven.ChatOptions{})
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chats = append(m.chats, messages)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// lastChat returns the messages of the most recent Chat call.
func (m *mockLLMService) lastChat() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chats) == 0 {
		return nil
	}
	return m.chats[len(m.chats)-1]
}

// mockRetriever implements driving.Retriever for testing the assistant.
type mockRetriever struct {
	results []domain.RetrievalResult
	err     error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, _ driving.RetrieveOptions) ([]domain.RetrievalResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockRecommender implements driving.Recommender for the scheduler tests.
// errByUser fails specific users; every call is recorded.
type mockRecommender struct {
	mu        sync.Mutex
	errByUser map[string]error
	calls     []string
}

func (m *mockRecommender) Recommend(_ context.Context, userID string, _ domain.RecommendationKind, _ int) ([]domain.RecommendationScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, userID)
	if err, ok := m.errByUser[userID]; ok {
		return nil, err
	}
	return []domain.RecommendationScore{}, nil
}
