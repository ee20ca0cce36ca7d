package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedServer struct {
	requests atomic.Int32
	failures int32
	status   int
}

func (s *embedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.requests.Add(1)
	if r.URL.Path != "/api/embed" {
		http.NotFound(w, r)
		return
	}
	if n <= s.failures {
		w.WriteHeader(s.status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "busy"})
		return
	}

	var req struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	embeddings := make([][]float32, len(req.Input))
	for i, in := range req.Input {
		embeddings[i] = []float32{float32(len(in)), 1}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": embeddings})
}

func newTestEmbedder(t *testing.T, s *embedServer) *OllamaEmbedder {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	emb, err := NewOllamaEmbedder(srv.URL, "all-minilm")
	require.NoError(t, err)
	emb.Backoff = time.Millisecond
	return emb
}

func TestOllamaEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldEmbedBatchInOrder", func(t *testing.T) {
		s := &embedServer{}
		emb := newTestEmbedder(t, s)
		vecs, err := emb.Embed(ctx, []string{"a", "abc", "ab"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 1}, {3, 1}, {2, 1}}, vecs)
		assert.EqualValues(t, 1, s.requests.Load())
		assert.Equal(t, "all-minilm", emb.ModelName())
	})

	t.Run("ShouldRetryServerErrors", func(t *testing.T) {
		s := &embedServer{failures: 2, status: http.StatusServiceUnavailable}
		emb := newTestEmbedder(t, s)
		vecs, err := emb.Embed(ctx, []string{"hello"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{5, 1}}, vecs)
		assert.EqualValues(t, 3, s.requests.Load())
	})

	t.Run("ShouldNotRetryClientErrors", func(t *testing.T) {
		s := &embedServer{failures: 10, status: http.StatusNotFound}
		emb := newTestEmbedder(t, s)
		_, err := emb.Embed(ctx, []string{"hello"})
		require.Error(t, err)
		assert.EqualValues(t, 1, s.requests.Load())
	})

	t.Run("ShouldGiveUpAfterMaxRetries", func(t *testing.T) {
		s := &embedServer{failures: 10, status: http.StatusInternalServerError}
		emb := newTestEmbedder(t, s)
		emb.MaxRetries = 2
		_, err := emb.Embed(ctx, []string{"hello"})
		require.Error(t, err)
		assert.EqualValues(t, 3, s.requests.Load())
	})

	t.Run("ShouldServeRepeatedTextsFromCache", func(t *testing.T) {
		s := &embedServer{}
		emb := newTestEmbedder(t, s)
		require.NoError(t, emb.EnableCache(16))

		first, err := emb.Embed(ctx, []string{"one", "three"})
		require.NoError(t, err)
		first[0][0] = 99

		second, err := emb.Embed(ctx, []string{"three", "one"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{5, 1}, {3, 1}}, second)
		assert.EqualValues(t, 1, s.requests.Load())

		_, err = emb.Embed(ctx, []string{"one", "four"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, s.requests.Load())
	})

	t.Run("ShouldRejectInvalidCacheSize", func(t *testing.T) {
		emb := newTestEmbedder(t, &embedServer{})
		assert.Error(t, emb.EnableCache(0))
	})
}
