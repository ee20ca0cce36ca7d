// Package index provides an exact nearest-neighbour index over chunk embeddings
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"pdf-rag/internal/models"
)

// Flat is an immutable brute-force L2 index. Vector i belongs to chunk i.
type Flat struct {
	dim     int
	vectors [][]float32
	chunks  []models.Chunk
}

// Build copies vectors and chunks into a new index. Both must be non-empty and
// of equal length, and every vector must share one non-zero dimension.
func Build(vectors [][]float32, chunks []models.Chunk) (*Flat, error) {
	if len(vectors) == 0 {
		return nil, errors.New("cannot build index from zero vectors")
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vector count %d does not match chunk count %d", len(vectors), len(chunks))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("vectors must have non-zero dimension")
	}

	f := &Flat{
		dim:     dim,
		vectors: make([][]float32, len(vectors)),
		chunks:  make([]models.Chunk, len(chunks)),
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
		f.vectors[i] = append([]float32(nil), v...)
	}
	copy(f.chunks, chunks)
	return f, nil
}

// Len returns the number of indexed chunks
func (f *Flat) Len() int {
	return len(f.vectors)
}

// Dimension returns the vector dimension
func (f *Flat) Dimension() int {
	return f.dim
}

// Chunks returns a copy of the indexed chunks in insertion order
func (f *Flat) Chunks() []models.Chunk {
	return append([]models.Chunk(nil), f.chunks...)
}

// Search returns the min(k, Len()) chunks closest to query by Euclidean
// distance, ascending. Equal distances keep insertion order.
func (f *Flat) Search(query []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), f.dim)
	}

	results := make([]models.SearchResult, len(f.vectors))
	for i, v := range f.vectors {
		results[i] = models.SearchResult{Chunk: f.chunks[i], Distance: l2(query, v)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})

	return results[:min(k, len(results))], nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
