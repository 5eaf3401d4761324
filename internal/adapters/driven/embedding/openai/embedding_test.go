package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Provider) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewProvider(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Model:             "text-embedding-3-large",
		Dimensions:        4,
		RequestsPerSecond: -1,
	})
	require.NoError(t, err)
	return server, provider
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(Config{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewProvider_Defaults(t *testing.T) {
	provider, err := NewProvider(Config{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, provider.ModelName())
	assert.Equal(t, 3072, provider.Dimensions())
}

func TestNewProvider_DimensionsTooLarge(t *testing.T) {
	_, err := NewProvider(Config{APIKey: "k", Dimensions: 4096})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestProvider_GenerateEmbedding(t *testing.T) {
	var gotReq embeddingRequest
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0.1, 0.2, 0.3, 0.4}, "index": 0},
			},
			"usage": map[string]int{"prompt_tokens": 7, "total_tokens": 7},
		})
	})

	result, err := provider.GenerateEmbedding(context.Background(), "hello world")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, result.Embedding)
	assert.Equal(t, 7, result.Usage.Input)
	assert.Equal(t, "text-embedding-3-large", gotReq.Model)
	assert.Equal(t, 4, gotReq.Dimensions)
	assert.Equal(t, []string{"hello world"}, gotReq.Input)
}

func TestProvider_GenerateEmbedding_FiltersShortInput(t *testing.T) {
	called := false
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	result, err := provider.GenerateEmbedding(context.Background(), "   ")

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, called, "filtered input must not reach the API")
}

func TestProvider_GenerateBatchEmbeddings_FiltersAndOrders(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// Respond out of order; the adapter must reorder by index.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{2, 2, 2, 2}, "index": 1},
				{"embedding": []float64{1, 1, 1, 1}, "index": 0},
			},
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		})
	})

	result, err := provider.GenerateBatchEmbeddings(context.Background(), []string{"first", "", "second"})

	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Embeddings, 2)
	assert.Equal(t, []float32{1, 1, 1, 1}, result.Embeddings[0])
	assert.Equal(t, []float32{2, 2, 2, 2}, result.Embeddings[1])
}

func TestProvider_GenerateBatchEmbeddings_AllFiltered(t *testing.T) {
	called := false
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	result, err := provider.GenerateBatchEmbeddings(context.Background(), []string{"", "  "})

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, called)
}

func TestProvider_GenerateEmbedding_APIError(t *testing.T) {
	_, provider := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	})

	result, err := provider.GenerateEmbedding(context.Background(), "hello")

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}
