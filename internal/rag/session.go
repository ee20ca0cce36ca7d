package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/index"
	"pdf-rag/internal/llm"
	"pdf-rag/internal/logger"
	"pdf-rag/internal/metrics"
	"pdf-rag/internal/models"
	"pdf-rag/internal/processor"
	"pdf-rag/internal/retriever"
)

// State is the observable lifecycle state of a session
type State int

const (
	StateEmpty State = iota
	StateIndexed
)

func (s State) String() string {
	if s == StateIndexed {
		return "indexed"
	}
	return "empty"
}

// Session holds one published index. Builds happen on a private copy and are
// published atomically, so readers never observe a partial index.
type Session struct {
	ID string

	engine *Engine
	log    *logger.Logger
	index  atomic.Pointer[index.Flat]

	// serializes builds so the last successful Index call wins
	buildMu sync.Mutex
}

// State reports whether an index is published
func (s *Session) State() State {
	if s.index.Load() == nil {
		return StateEmpty
	}
	return StateIndexed
}

// ChunkCount returns the number of chunks in the published index, or 0
func (s *Session) ChunkCount() int {
	if idx := s.index.Load(); idx != nil {
		return idx.Len()
	}
	return 0
}

// Chunks returns the chunks of the published index, or nil
func (s *Session) Chunks() []models.Chunk {
	if idx := s.index.Load(); idx != nil {
		return idx.Chunks()
	}
	return nil
}

// Index extracts, chunks and embeds files and publishes the resulting index.
// On any failure the previously published index stays in place.
func (s *Session) Index(ctx context.Context, files []models.SourceFile) (models.IndexStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	stats, idx, err := s.build(ctx, files)
	stats.Duration = time.Since(start)

	s.log.LogIndexBuild(stats.Documents, stats.Pages, stats.Chunks, stats.Duration, err)
	if err != nil {
		s.engine.metrics.RecordIndexBuild(0, models.KindName(err))
		return models.IndexStats{}, err
	}

	if prev := s.index.Swap(idx); prev == nil {
		s.engine.metrics.SessionsIndexed.Inc()
	}
	s.engine.metrics.RecordIndexBuild(stats.Chunks, "")
	return stats, nil
}

func (s *Session) build(ctx context.Context, files []models.SourceFile) (models.IndexStats, *index.Flat, error) {
	var stats models.IndexStats
	m := s.engine.metrics
	extractor := processor.NewExtractor(s.log.Component("extractor"))

	t := time.Now()
	docs, err := extractor.Extract(ctx, files)
	m.ObserveStage(metrics.StageExtract, t)
	if err != nil {
		return stats, nil, err
	}
	stats.Documents = len(docs)
	for _, d := range docs {
		stats.Pages += len(d.Pages)
	}

	t = time.Now()
	chunks, err := s.engine.chunker.Chunk(docs)
	m.ObserveStage(metrics.StageChunk, t)
	if err != nil {
		return stats, nil, err
	}
	stats.Chunks = len(chunks)

	emb, err := s.engine.Embedder()
	if err != nil {
		return stats, nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	progressLog := s.log.Component("embedder")
	t = time.Now()
	vectors, err := embedding.EmbedAll(ctx, emb, texts, embedding.BatchOptions{
		Timeout:       s.engine.opts.EmbedTimeout,
		BatchSize:     s.engine.opts.BatchSize,
		MaxConcurrent: s.engine.opts.MaxConcurrent,
		Progress: func(processed, total int) {
			progressLog.Debug().Int("processed", processed).Int("total", total).Msg("Embedding progress")
		},
	})
	m.ObserveStage(metrics.StageEmbed, t)
	if err != nil {
		return stats, nil, err
	}

	idx, err := index.Build(vectors, chunks)
	if err != nil {
		return stats, nil, models.NewError(models.ErrEmbedding, "build index", err)
	}
	stats.Dimension = idx.Dimension()
	return stats, idx, nil
}

// Search returns the k chunks nearest to question from the published index
func (s *Session) Search(ctx context.Context, question string, k int) ([]models.SearchResult, error) {
	idx := s.index.Load()
	if idx == nil {
		return nil, models.NewError(models.ErrIndexNotReady, "search", nil)
	}
	if k <= 0 {
		k = s.engine.opts.TopK
	}

	emb, err := s.engine.Embedder()
	if err != nil {
		return nil, err
	}

	if s.engine.opts.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.engine.opts.EmbedTimeout)
		defer cancel()
	}

	t := time.Now()
	results, err := retriever.New(emb).Retrieve(ctx, idx, question, k)
	s.engine.metrics.ObserveStage(metrics.StageSearch, t)
	return results, err
}

// Ask answers question from the published index. k <= 0 uses the engine default.
func (s *Session) Ask(ctx context.Context, question string, k int) (*models.Answer, error) {
	if k <= 0 {
		k = s.engine.opts.TopK
	}
	start := time.Now()
	answer, err := s.ask(ctx, question, k)

	if err != nil {
		s.log.LogQuery(k, 0, 0, time.Since(start), err)
		s.engine.metrics.RecordQuery(models.KindName(err))
		return nil, err
	}
	s.log.LogQuery(k, len(answer.Sources), len(answer.Citations), time.Since(start), nil)
	s.engine.metrics.RecordQuery("")

	if rec := s.engine.opts.Recorder; rec != nil {
		if err := rec.RecordAnswer(ctx, s.ID, answer); err != nil {
			historyLog := s.log.Component("history")
			historyLog.Warn().Err(err).Msg("Failed to record answer")
		}
	}
	return answer, nil
}

func (s *Session) ask(ctx context.Context, question string, k int) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, models.NewError(models.ErrInvalidInput, "ask", errors.New("question is empty"))
	}

	results, err := s.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}

	gen, err := s.engine.Generator()
	if err != nil {
		return nil, err
	}
	synth := &llm.Synthesizer{
		Generator: gen,
		Options:   s.engine.opts.Generate,
		Timeout:   s.engine.opts.SynthTimeout,
	}

	t := time.Now()
	text, err := synth.Synthesize(ctx, question, results)
	s.engine.metrics.ObserveStage(metrics.StageSynthesis, t)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Question:  strings.TrimSpace(question),
		Text:      text,
		Sources:   results,
		Citations: retriever.Citations(results),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Clear drops the published index and returns the session to StateEmpty
func (s *Session) Clear() {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if prev := s.index.Swap(nil); prev != nil {
		s.engine.metrics.SessionsIndexed.Dec()
		sessionLog := s.log.Component("session")
		sessionLog.Info().Msg("Index cleared")
	}
}
