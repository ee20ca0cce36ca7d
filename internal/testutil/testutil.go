// Package testutil holds deterministic stand-ins for model backends
package testutil

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"pdf-rag/internal/llm"
)

// HashEmbedder embeds text as a normalized bag of hashed lowercase words.
// Equal texts get equal vectors and texts sharing words are close.
type HashEmbedder struct {
	Dim   int
	Err   error
	Calls atomic.Int32
}

// NewHashEmbedder creates a hash embedder with dim buckets
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) ModelName() string { return fmt.Sprintf("hash-%d", h.Dim) }

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	h.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.Dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(strings.Trim(w, ".,;:!?\"'()")))
		v[f.Sum32()%uint32(h.Dim)]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// EchoGenerator records prompts and answers with a fixed reply
type EchoGenerator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
	opts    []llm.GenerateOptions
}

func (e *EchoGenerator) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.opts = append(e.opts, opts)
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.Err != nil {
		return "", e.Err
	}
	return e.Reply, nil
}

func (e *EchoGenerator) ModelName() string { return "echo" }

// Prompts returns every prompt received so far
func (e *EchoGenerator) Prompts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.prompts...)
}

// LastOptions returns the options of the most recent call
func (e *EchoGenerator) LastOptions() llm.GenerateOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.opts) == 0 {
		return llm.GenerateOptions{}
	}
	return e.opts[len(e.opts)-1]
}
