package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wacana/backend/internal/infrastructure/config"
)

func TestBuildEmbeddingURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://h", "http://h/v1/embeddings"},
		{"http://h/v1", "http://h/v1/embeddings"},
		{"http://h/v1/", "http://h/v1/embeddings"},
		{"http://h/v1/embeddings", "http://h/v1/embeddings"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildEmbeddingURL(tt.base))
	}
}

func TestClient_EmbedQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key-123456789", r.Header.Get("Authorization"))

		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"jadwal uas"}, req.Input)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}],"model":"m"}`))
	}))
	defer server.Close()

	c := NewClient(&config.EmbeddingConfig{BaseURL: server.URL + "/", APIKey: "key-123456789", Model: "m"})
	vec, err := c.EmbedQuery(context.Background(), "jadwal uas")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	}))
	defer server.Close()

	c := NewClient(&config.EmbeddingConfig{BaseURL: server.URL})
	_, err := c.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(&config.EmbeddingConfig{BaseURL: server.URL})
	_, err := c.EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "abcd...6789", maskKey("abcdef123456789"))
}
