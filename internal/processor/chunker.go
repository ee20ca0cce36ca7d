package processor

import (
	"fmt"
	"strings"

	"pdf-rag/internal/models"
)

const (
	// DefaultChunkSize is the number of words per chunk
	DefaultChunkSize = 400
	// DefaultChunkOverlap is the number of words shared by adjacent chunks
	DefaultChunkOverlap = 50
)

// Chunker splits page text into overlapping word windows
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a chunker, rejecting windows that would not advance
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk: size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk: overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", overlap, size)
	}
	return &Chunker{Size: size, Overlap: overlap}, nil
}

// ChunkPage splits one page. Windows start every Size-Overlap words and stop
// once a window reaches the last word, so a page of at most Size words is a
// single chunk. Chunks never cross page boundaries.
func (c *Chunker) ChunkPage(page models.Page) []models.Chunk {
	words := strings.Fields(page.Text)
	if len(words) == 0 {
		return nil
	}

	step := c.Size - c.Overlap
	var chunks []models.Chunk
	for start := 0; ; start += step {
		end := min(start+c.Size, len(words))
		chunks = append(chunks, models.Chunk{
			Text:   strings.Join(words[start:end], " "),
			Source: page.Source,
			Page:   page.Number,
			Index:  len(chunks),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Chunk splits every page of every document in order. It fails with
// ErrChunking when nothing was produced.
func (c *Chunker) Chunk(docs []models.SourceDocument) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		for _, page := range doc.Pages {
			chunks = append(chunks, c.ChunkPage(page)...)
		}
	}
	if len(chunks) == 0 {
		return nil, models.NewError(models.ErrChunking, "chunk", fmt.Errorf("no chunks produced from %d document(s)", len(docs)))
	}
	return chunks, nil
}
