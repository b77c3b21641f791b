package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/heritage-archive/hrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) ai.AIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ai.NewConfig(
		ai.WithBackend(ai.BackendOpenAI),
		ai.WithHost(srv.URL),
		ai.WithEmbeddingModel("text-embedding-3-small"),
		ai.WithGenerationModel("gpt-4o-mini"),
	)
	p, err := NewProvider(cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return p
}

func TestEmbedder_EmbedText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer none", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, []string{"Ribat of Monastir"}, req.Input)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2}, "index": 0}},
		})
	})

	vec, err := p.Embedder().EmbedText(context.Background(), "Ribat of Monastir")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, "text-embedding-3-small", p.Embedder().Model())
}

func TestEmbedder_StatusClassification(t *testing.T) {
	status := http.StatusServiceUnavailable
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"try later"}}`))
	})

	_, err := p.Embedder().EmbedText(context.Background(), "text")
	var se *ai.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.True(t, ai.IsTransient(err))

	status = http.StatusUnauthorized
	_, err = p.Embedder().EmbedText(context.Background(), "text")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.False(t, ai.IsTransient(err))
}

func TestEmbedder_EmptyText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := p.Embedder().EmbedText(context.Background(), " ")
	assert.ErrorIs(t, err, ai.ErrEmptyText)
}

func TestGenerator_Generate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content any    `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Carthage fell in 146 BC [#1]."},
				"finish_reason": "stop",
			}},
		})
	})

	answer, err := p.Generator().Generate(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Carthage fell in 146 BC [#1].", answer)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classify("embed", nil))
	assert.False(t, ai.IsTransient(classify("embed", context.Canceled)))
	assert.True(t, ai.IsTransient(classify("embed", errors.New("API returned unexpected status code: 502"))))
	assert.False(t, ai.IsTransient(classify("embed", errors.New("API returned unexpected status code: 400: bad"))))
	assert.True(t, ai.IsTransient(classify("embed", errors.New("too many requests"))))
	assert.False(t, ai.IsTransient(classify("embed", errors.New("incorrect api key provided"))))
	assert.True(t, ai.IsTransient(classify("embed", errors.New("dial tcp: connection refused"))))

	var out struct{}
	decodeErr := json.Unmarshal([]byte("<html>not json"), &out)
	require.Error(t, decodeErr)
	err := classify("embed", fmt.Errorf("decoding embeddings: %w", decodeErr))
	assert.False(t, ai.IsTransient(err), "a malformed body is permanent")
	assert.ErrorIs(t, err, ai.ErrPermanentService)
}

func TestNewProvider_RequiresOpenAIBackend(t *testing.T) {
	_, err := NewProvider(ai.NewConfig())
	assert.Error(t, err)

	_, err = NewProvider(nil)
	assert.Error(t, err)
}
