package retriever

import (
	"context"
	"errors"
	"testing"

	"pdf-rag/internal/index"
	"pdf-rag/internal/models"
	"pdf-rag/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, emb *testutil.HashEmbedder, chunks []models.Chunk) *index.Flat {
	t.Helper()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := emb.Embed(context.Background(), texts)
	require.NoError(t, err)
	idx, err := index.Build(vecs, chunks)
	require.NoError(t, err)
	return idx
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	emb := testutil.NewHashEmbedder(64)
	idx := buildIndex(t, emb, []models.Chunk{
		{Text: "invoices are due within thirty days", Source: "terms.pdf", Page: 1},
		{Text: "the warranty covers parts and labour", Source: "terms.pdf", Page: 2},
		{Text: "late invoices accrue interest", Source: "terms.pdf", Page: 3},
	})
	r := New(emb)

	t.Run("ShouldRankExactMatchFirst", func(t *testing.T) {
		res, err := r.Retrieve(ctx, idx, "the warranty covers parts and labour", 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, 2, res[0].Chunk.Page)
		assert.Zero(t, res[0].Distance)
		assert.LessOrEqual(t, res[0].Distance, res[1].Distance)
	})

	t.Run("ShouldDefaultK", func(t *testing.T) {
		res, err := r.Retrieve(ctx, idx, "invoices", 0)
		require.NoError(t, err)
		assert.Len(t, res, 3)
	})

	t.Run("ShouldFailWithoutIndex", func(t *testing.T) {
		_, err := r.Retrieve(ctx, nil, "anything", 4)
		assert.ErrorIs(t, err, models.ErrIndexNotReady)
	})

	t.Run("ShouldRejectBlankQuestion", func(t *testing.T) {
		_, err := r.Retrieve(ctx, idx, "   ", 4)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("ShouldReportEmbeddingFailure", func(t *testing.T) {
		bad := testutil.NewHashEmbedder(64)
		bad.Err = errors.New("model offline")
		_, err := New(bad).Retrieve(ctx, idx, "invoices", 4)
		assert.ErrorIs(t, err, models.ErrEmbedding)
	})

	t.Run("ShouldReportDimensionMismatch", func(t *testing.T) {
		_, err := New(testutil.NewHashEmbedder(8)).Retrieve(ctx, idx, "invoices", 4)
		assert.ErrorIs(t, err, models.ErrEmbedding)
	})
}

func TestCitations(t *testing.T) {
	t.Run("ShouldCollapseDuplicateText", func(t *testing.T) {
		results := []models.SearchResult{
			{Chunk: models.Chunk{Text: "A", Source: "x.pdf", Page: 1}, Distance: 0.1},
			{Chunk: models.Chunk{Text: "A ", Source: "x.pdf", Page: 5}, Distance: 0.2},
			{Chunk: models.Chunk{Text: "B", Source: "x.pdf", Page: 2}, Distance: 0.3},
		}
		got := Citations(results)
		assert.Equal(t, []models.Citation{
			{Source: "x.pdf", Page: 1, Text: "A"},
			{Source: "x.pdf", Page: 2, Text: "B"},
		}, got)
	})

	t.Run("ShouldReturnEmptyForNoResults", func(t *testing.T) {
		assert.Empty(t, Citations(nil))
	})
}
