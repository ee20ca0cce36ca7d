// Package retriever finds the chunks most relevant to a question
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/index"
	"pdf-rag/internal/models"
)

// DefaultTopK is the number of chunks retrieved when the caller does not say
const DefaultTopK = 4

// Retriever embeds questions and searches an index
type Retriever struct {
	Embedder embedding.Embedder
}

// New creates a retriever over emb
func New(emb embedding.Embedder) *Retriever {
	return &Retriever{Embedder: emb}
}

// Retrieve returns the k nearest chunks to question, closest first. A nil
// index fails with ErrIndexNotReady.
func (r *Retriever) Retrieve(ctx context.Context, idx *index.Flat, question string, k int) ([]models.SearchResult, error) {
	if idx == nil {
		return nil, models.NewError(models.ErrIndexNotReady, "retrieve", nil)
	}
	if strings.TrimSpace(question) == "" {
		return nil, models.NewError(models.ErrInvalidInput, "retrieve", errors.New("question is empty"))
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query, err := embedding.EmbedQuery(ctx, r.Embedder, question)
	if err != nil {
		return nil, err
	}

	results, err := idx.Search(query, k)
	if err != nil {
		return nil, models.NewError(models.ErrEmbedding, "retrieve", fmt.Errorf("failed to search index: %w", err))
	}
	return results, nil
}

// Citations collapses results whose trimmed text is identical, keeping the
// first (closest) occurrence. Input order is preserved.
func Citations(results []models.SearchResult) []models.Citation {
	seen := make(map[string]struct{}, len(results))
	out := make([]models.Citation, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Chunk.Text)
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, models.Citation{Source: r.Chunk.Source, Page: r.Chunk.Page, Text: text})
	}
	return out
}
