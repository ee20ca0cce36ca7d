// Package embedding maps text to fixed-dimension vectors
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pdf-rag/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize     = 32
	DefaultMaxConcurrent = 4
)

// Embedder computes one vector per input text, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// BatchOptions controls how EmbedAll splits and schedules work
type BatchOptions struct {
	BatchSize     int
	MaxConcurrent int
	// Timeout bounds each batch request. Zero means no limit.
	Timeout time.Duration
	// Progress is called after each batch completes. Calls are serialized.
	Progress func(processed, total int)
}

// EmbedQuery embeds a single string and checks that exactly one vector came back
func EmbedQuery(ctx context.Context, emb Embedder, text string) ([]float32, error) {
	vecs, err := emb.Embed(ctx, []string{text})
	if err != nil {
		return nil, models.NewContextError(ctx, models.ErrEmbedding, "embed query", err)
	}
	if len(vecs) != 1 {
		return nil, models.NewError(models.ErrEmbedding, "embed query", fmt.Errorf("expected 1 vector, got %d", len(vecs)))
	}
	if len(vecs[0]) == 0 {
		return nil, models.NewError(models.ErrEmbedding, "embed query", errors.New("empty vector"))
	}
	return vecs[0], nil
}

// EmbedAll embeds texts in batches with bounded concurrency. Cancellation is
// checked between batches. The result has one row per input, in input order,
// and every row has the same dimension.
func EmbedAll(ctx context.Context, emb Embedder, texts []string, opts BatchOptions) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, models.NewError(models.ErrEmbedding, "embed", errors.New("no texts to embed"))
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}

	total := len(texts)
	out := make([][]float32, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrent)

	var mu sync.Mutex
	processed := 0

	for start := 0; start < total; start += opts.BatchSize {
		if gctx.Err() != nil {
			break
		}
		end := min(start+opts.BatchSize, total)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			callCtx := gctx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, opts.Timeout)
				defer cancel()
			}
			vecs, err := emb.Embed(callCtx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed texts %d-%d: %w", start, end-1, models.JoinContext(callCtx, err))
			}
			if len(vecs) != end-start {
				return fmt.Errorf("expected %d vectors for texts %d-%d, got %d", end-start, start, end-1, len(vecs))
			}
			copy(out[start:end], vecs)

			mu.Lock()
			processed += end - start
			if opts.Progress != nil {
				opts.Progress(processed, total)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, models.NewError(models.ErrEmbedding, "embed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewError(models.ErrEmbedding, "embed", err)
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) == 0 || len(v) != dim {
			return nil, models.NewError(models.ErrEmbedding, "embed", fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim))
		}
	}
	return out, nil
}
