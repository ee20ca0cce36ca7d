package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangchainEmbedder adapts a langchaingo embedder
type LangchainEmbedder struct {
	impl  embeddings.Embedder
	model string
}

var _ Embedder = (*LangchainEmbedder)(nil)

// NewGoogleAIEmbedder creates a Google AI embedder. The key is required.
func NewGoogleAIEmbedder(ctx context.Context, apiKey, model string, batchSize int) (*LangchainEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("google ai embedder requires an API key")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize google ai client: %w", err)
	}

	impl, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batchSize), embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to construct google ai embedder: %w", err)
	}
	return WrapLangchain(impl, model), nil
}

// WrapLangchain wraps an existing langchaingo embedder
func WrapLangchain(impl embeddings.Embedder, model string) *LangchainEmbedder {
	return &LangchainEmbedder{impl: impl, model: model}
}

// ModelName returns the embedding model id
func (l *LangchainEmbedder) ModelName() string {
	return l.model
}

// Embed generates one embedding per text
func (l *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := l.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}
