package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLMService(LLMConfig{BaseURL: server.URL, Model: "llama3.2"})
}

func TestGenerate_Success(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 256, req.Options.NumPredict)

		json.NewEncoder(w).Encode(generateResponse{Response: "Recursion is...", Done: true})
	})

	answer, err := svc.Generate(context.Background(), "explain recursion",
		driven.GenerateOptions{MaxTokens: 256, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Recursion is...", answer)
}

func TestChat_Success(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Sure."},
			Done:    true,
		})
	})

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You are a tutor."},
		{Role: "user", Content: "Help me with loops."},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Sure.", answer)
}

func TestGenerate_ModelNotFound(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	})

	_, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
	assert.False(t, domain.IsRecoverable(err))
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Generate(ctx, "hi", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationTimeout)
	assert.True(t, domain.IsRecoverable(err))
}

func TestGenerate_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: url})
	_, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
