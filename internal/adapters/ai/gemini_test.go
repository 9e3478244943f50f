package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/pkg/errors"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewGeminiProvider("test-key", "gemini-2.0-flash", 5*time.Second, NewNoOpLimiter())
	p.baseURL = server.URL
	return p
}

func TestGeminiProvider_Chat(t *testing.T) {
	var captured geminiRequest
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "  Take a break after losses.  "}}}},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 10, "candidatesTokenCount": 7, "totalTokenCount": 17},
		})
	})

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a trading psychology coach."},
			{Role: RoleUser, Content: "I keep overtrading."},
		},
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   800,
	})
	require.NoError(t, err)

	assert.Equal(t, "Take a break after losses.", resp.Content)
	assert.Equal(t, 17, resp.Usage.TotalTokens)

	require.Len(t, captured.Contents, 1)
	require.Len(t, captured.Contents[0].Parts, 1)
	assert.Contains(t, captured.Contents[0].Parts[0].Text, "trading psychology coach")
	assert.Contains(t, captured.Contents[0].Parts[0].Text, "User: I keep overtrading.")
	assert.Equal(t, 0.7, captured.GenerationConfig.Temperature)
	assert.Equal(t, 40, captured.GenerationConfig.TopK)
	assert.Equal(t, 800, captured.GenerationConfig.MaxOutputTokens)
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.True(t, errors.Is(err, errors.ErrInvalidResponse))
}

func TestGeminiProvider_QuotaExceeded(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.True(t, errors.Is(err, errors.ErrRateLimited))
}

func TestGeminiProvider_ServerError(t *testing.T) {
	p := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.True(t, errors.Is(err, errors.ErrExternal))
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	p := NewGeminiProvider("", "gemini-2.0-flash", time.Second, NewNoOpLimiter())

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}
