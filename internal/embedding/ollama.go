package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
	"github.com/sethvargo/go-retry"
)

// OllamaEmbedder generates embeddings using the Ollama API
type OllamaEmbedder struct {
	Client     *api.Client
	Model      string
	MaxRetries uint64
	Timeout    time.Duration
	Backoff    time.Duration

	cacheMu sync.Mutex
	cache   *lru.Cache[string, []float32]
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. An empty host falls back to OLLAMA_HOST.
func NewOllamaEmbedder(host string, model string) (*OllamaEmbedder, error) {
	client, err := newOllamaClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaEmbedder{
		Client:     client,
		Model:      model,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
		Backoff:    500 * time.Millisecond,
	}, nil
}

// newOllamaClient builds an api client for host, or for OLLAMA_HOST when host is empty
func newOllamaClient(host string) (*api.Client, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}
	return api.NewClient(hostURL, http.DefaultClient), nil
}

// ModelName returns the embedding model id
func (e *OllamaEmbedder) ModelName() string {
	return e.Model
}

// EnableCache keeps up to size vectors keyed by input text
func (e *OllamaEmbedder) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("cache size must be greater than zero, got %d", size)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("failed to create embedding cache: %w", err)
	}
	e.cacheMu.Lock()
	e.cache = cache
	e.cacheMu.Unlock()
	return nil
}

// Embed generates one embedding per text. Cached texts are not sent again.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.cacheMu.Lock()
	cache := e.cache
	e.cacheMu.Unlock()
	if cache == nil {
		return e.embedWithRetry(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := cache.Get(t); ok {
			out[i] = clone(v)
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := e.embedWithRetry(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, i := range missingIdx {
		out[i] = vecs[j]
		cache.Add(missing[j], clone(vecs[j]))
	}
	return out, nil
}

// embedWithRetry retries transport failures and server errors with exponential backoff
func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := retry.WithMaxRetries(e.MaxRetries, retry.NewExponential(max(e.Backoff, time.Millisecond)))

	var vecs [][]float32
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		vecs, err = e.createEmbeddings(ctx, texts)
		if err != nil && retryable(ctx, err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings after %d retries: %w", e.MaxRetries, err)
	}
	return vecs, nil
}

// createEmbeddings is a helper function to run a single embed request
func (e *OllamaEmbedder) createEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	req := api.EmbedRequest{
		Model: e.Model,
		Input: texts,
	}

	// Create a context with timeout
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	resp, err := e.Client.Embed(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	return resp.Embeddings, nil
}

// retryable reports whether a failed request is worth repeating
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return !errors.Is(err, context.Canceled)
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
