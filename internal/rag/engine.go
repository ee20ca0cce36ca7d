// Package rag ties extraction, embedding, search and synthesis into sessions
package rag

import (
	"context"
	"sync"
	"time"

	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llm"
	"pdf-rag/internal/logger"
	"pdf-rag/internal/metrics"
	"pdf-rag/internal/models"
	"pdf-rag/internal/processor"
	"pdf-rag/internal/retriever"

	"github.com/google/uuid"
)

// Recorder persists answered questions
type Recorder interface {
	RecordAnswer(ctx context.Context, sessionID string, answer *models.Answer) error
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	BatchSize     int
	MaxConcurrent int
	EmbedTimeout  time.Duration
	Generate      llm.GenerateOptions
	SynthTimeout  time.Duration

	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Recorder Recorder
}

// Engine owns the process-wide model clients shared by every session
type Engine struct {
	opts    Options
	log     *logger.Logger
	metrics *metrics.Metrics
	chunker *processor.Chunker

	embedder  *lazy[embedding.Embedder]
	generator *lazy[llm.Generator]
}

// lazy builds a value on first use. A failed build is not kept, so the next
// call tries again; once a build succeeds its value is shared.
type lazy[T any] struct {
	mu    sync.Mutex
	build func() (T, error)
	val   T
	ready bool
}

func (l *lazy[T]) get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		return l.val, nil
	}
	v, err := l.build()
	if err != nil {
		var zero T
		return zero, err
	}
	l.val, l.ready = v, true
	return v, nil
}

// NewEngine creates an engine. The factories run on first use and are retried
// on later calls until one succeeds.
func NewEngine(opts Options, newEmbedder func() (embedding.Embedder, error), newGenerator func() (llm.Generator, error)) (*Engine, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = processor.DefaultChunkSize
		if opts.ChunkOverlap == 0 {
			opts.ChunkOverlap = processor.DefaultChunkOverlap
		}
	}
	if opts.TopK <= 0 {
		opts.TopK = retriever.DefaultTopK
	}
	if opts.Generate == (llm.GenerateOptions{}) {
		opts.Generate = llm.GenerateOptions{Temperature: llm.DefaultTemperature, MaxTokens: llm.DefaultMaxOutputTokens}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics()
	}

	chunker, err := processor.NewChunker(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:      opts,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		chunker:   chunker,
		embedder:  &lazy[embedding.Embedder]{build: newEmbedder},
		generator: &lazy[llm.Generator]{build: newGenerator},
	}, nil
}

// FromConfig creates an engine whose model clients are built from cfg
func FromConfig(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, rec Recorder) (*Engine, error) {
	opts := Options{
		ChunkSize:     cfg.Chunker.Size,
		ChunkOverlap:  cfg.Chunker.Overlap,
		TopK:          cfg.Retrieval.TopK,
		BatchSize:     cfg.Embedder.BatchSize,
		MaxConcurrent: cfg.Embedder.MaxConcurrent,
		EmbedTimeout:  cfg.Embedder.Timeout,
		Generate: llm.GenerateOptions{
			Temperature: *cfg.Temperature,
			MaxTokens:   cfg.MaxOutputTokens,
		},
		SynthTimeout: cfg.LLM.Timeout,
		Logger:       log,
		Metrics:      m,
		Recorder:     rec,
	}
	return NewEngine(opts, func() (embedding.Embedder, error) {
		return newEmbedder(cfg)
	}, func() (llm.Generator, error) {
		return newGenerator(cfg)
	})
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedder.Provider {
	case config.ProviderGoogleAI:
		return embedding.NewGoogleAIEmbedder(context.Background(), cfg.LLMAPIKey, cfg.EmbeddingModelID, cfg.Embedder.BatchSize)
	default:
		emb, err := embedding.NewOllamaEmbedder(cfg.Embedder.Host, cfg.EmbeddingModelID)
		if err != nil {
			return nil, err
		}
		emb.MaxRetries = uint64(cfg.Embedder.MaxRetries)
		emb.Timeout = cfg.Embedder.Timeout
		if cfg.Embedder.CacheSize > 0 {
			if err := emb.EnableCache(cfg.Embedder.CacheSize); err != nil {
				return nil, err
			}
		}
		return emb, nil
	}
}

func newGenerator(cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGoogleAI:
		return llm.NewGoogleAILLM(context.Background(), cfg.LLMAPIKey, cfg.LLMModelID)
	default:
		return llm.NewOllamaLLM(cfg.LLM.Host, cfg.LLMModelID)
	}
}

// Embedder returns the shared embedder, creating it on first call
func (e *Engine) Embedder() (embedding.Embedder, error) {
	emb, err := e.embedder.get()
	if err != nil {
		return nil, models.NewError(models.ErrEmbedding, "load embedder", err)
	}
	return emb, nil
}

// Generator returns the shared generator, creating it on first call
func (e *Engine) Generator() (llm.Generator, error) {
	gen, err := e.generator.get()
	if err != nil {
		return nil, models.NewError(models.ErrSynthesis, "load generator", err)
	}
	return gen, nil
}

// Metrics returns the engine's metrics
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// TopK returns the default number of chunks retrieved per question
func (e *Engine) TopK() int {
	return e.opts.TopK
}

// NewSession creates an empty session
func (e *Engine) NewSession() *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		engine: e,
		log:    e.log.Session(id),
	}
}
