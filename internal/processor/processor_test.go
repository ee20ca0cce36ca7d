package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pdf-rag/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"  Hello\n\n world\t ":            "Hello world",
		"■ Intro ● text ▪":                "Intro text",
		"• item one – item two — three":   "- item one - item two - three",
		"energy $E = mc^2$ is conserved":  "energy is conserved",
		"non\u00a0breaking\u00a0\u00a0space":  "non breaking space",
		"price $5 only":                   "price $5 only",
		"a $x$ b $y$ c":                   "a b c",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "input %q", in)
	}

	t.Run("ShouldBeIdempotent", func(t *testing.T) {
		inputs := []string{
			"■■ $a$ $b $c$ d",
			"  • x   — y $$ z ",
			"plain text",
			"$ lone dollar",
			"",
		}
		for _, in := range inputs {
			once := Clean(in)
			assert.Equal(t, once, Clean(once), "input %q", in)
		}
	})
}

func TestNewChunker(t *testing.T) {
	t.Run("ShouldRejectOverlapNotSmallerThanSize", func(t *testing.T) {
		_, err := NewChunker(50, 50)
		assert.EqualError(t, err, "chunk: overlap 50 must be smaller than size 50")
	})
	t.Run("ShouldRejectNonPositiveSize", func(t *testing.T) {
		_, err := NewChunker(0, 0)
		assert.Error(t, err)
	})
	t.Run("ShouldRejectNegativeOverlap", func(t *testing.T) {
		_, err := NewChunker(10, -1)
		assert.Error(t, err)
	})
}

func TestChunkPage(t *testing.T) {
	c, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	t.Run("ShouldKeepShortPageWhole", func(t *testing.T) {
		page := models.Page{Source: "a.pdf", Number: 1, Text: words(400)}
		chunks := c.ChunkPage(page)
		require.Len(t, chunks, 1)
		assert.Equal(t, page.Text, chunks[0].Text)
		assert.Equal(t, 1, chunks[0].Page)
		assert.Equal(t, "a.pdf", chunks[0].Source)
	})

	t.Run("ShouldOverlapWindows", func(t *testing.T) {
		page := models.Page{Source: "a.pdf", Number: 3, Text: words(820)}
		chunks := c.ChunkPage(page)
		require.Len(t, chunks, 3)

		w := strings.Fields(page.Text)
		assert.Equal(t, strings.Join(w[0:400], " "), chunks[0].Text)
		assert.Equal(t, strings.Join(w[350:750], " "), chunks[1].Text)
		assert.Equal(t, strings.Join(w[700:820], " "), chunks[2].Text)
		for i, ch := range chunks {
			assert.Equal(t, 3, ch.Page)
			assert.Equal(t, i, ch.Index)
		}
	})

	t.Run("ShouldCoverEveryWordWithExpectedCount", func(t *testing.T) {
		for _, tc := range []struct{ size, overlap int }{{400, 50}, {10, 3}, {5, 0}, {7, 6}} {
			ch, err := NewChunker(tc.size, tc.overlap)
			require.NoError(t, err)
			for n := 1; n <= 60; n++ {
				chunks := ch.ChunkPage(models.Page{Number: 1, Text: words(n)})

				want := (max(n-tc.overlap, 1) + (tc.size - tc.overlap) - 1) / (tc.size - tc.overlap)
				require.Len(t, chunks, want, "size=%d overlap=%d n=%d", tc.size, tc.overlap, n)

				seen := map[string]bool{}
				for i, c := range chunks {
					fs := strings.Fields(c.Text)
					assert.LessOrEqual(t, len(fs), tc.size)
					for _, f := range fs {
						seen[f] = true
					}
					if i > 0 && tc.overlap > 0 {
						prev := strings.Fields(chunks[i-1].Text)
						assert.Equal(t, prev[len(prev)-tc.overlap:], fs[:tc.overlap])
					}
				}
				assert.Len(t, seen, n)
			}
		}
	})

	t.Run("ShouldSkipEmptyPage", func(t *testing.T) {
		assert.Empty(t, c.ChunkPage(models.Page{Number: 1, Text: "   "}))
	})
}

func TestChunk(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)

	t.Run("ShouldNeverSpanPages", func(t *testing.T) {
		docs := []models.SourceDocument{{
			Name: "doc.pdf",
			Pages: []models.Page{
				{Source: "doc.pdf", Number: 1, Text: words(5)},
				{Source: "doc.pdf", Number: 2, Text: words(12)},
			},
		}}
		chunks, err := c.Chunk(docs)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, []int{1, 2, 2}, []int{chunks[0].Page, chunks[1].Page, chunks[2].Page})
	})

	t.Run("ShouldFailWithChunkingErrorWhenEmpty", func(t *testing.T) {
		_, err := c.Chunk(nil)
		assert.ErrorIs(t, err, models.ErrChunking)
	})
}

func withPDFPages(t *testing.T, fn func([]byte) ([]string, error)) {
	t.Helper()
	orig := pdfPages
	pdfPages = fn
	t.Cleanup(func() { pdfPages = orig })
}

func TestExtract(t *testing.T) {
	e := NewExtractor(zerolog.Nop())
	ctx := context.Background()

	t.Run("ShouldNumberPagesAndSkipBlankOnes", func(t *testing.T) {
		withPDFPages(t, func([]byte) ([]string, error) {
			return []string{"First  page\n text", "", "■ ", "Fourth page"}, nil
		})
		docs, err := e.Extract(ctx, []models.SourceFile{{Name: "manual.pdf", Data: []byte("%PDF-1.4")}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, []models.Page{
			{Source: "manual.pdf", Number: 1, Text: "First page text"},
			{Source: "manual.pdf", Number: 4, Text: "Fourth page"},
		}, docs[0].Pages)
	})

	t.Run("ShouldFailWhenNoPagesHaveText", func(t *testing.T) {
		withPDFPages(t, func([]byte) ([]string, error) {
			return []string{"", "  "}, nil
		})
		_, err := e.Extract(ctx, []models.SourceFile{{Name: "scan.pdf", Data: []byte("%PDF-1.4")}})
		assert.ErrorIs(t, err, models.ErrExtraction)
		assert.Contains(t, models.UserMessage(err), "scanned images without OCR")
	})

	t.Run("ShouldSkipUnreadableFiles", func(t *testing.T) {
		withPDFPages(t, func([]byte) ([]string, error) {
			return nil, errors.New("broken xref")
		})
		docs, err := e.Extract(ctx, []models.SourceFile{
			{Name: "broken.pdf", Data: []byte("%PDF")},
			{Name: "notes.txt", Data: []byte("page one\fpage two")},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "notes.txt", docs[0].Name)
		require.Len(t, docs[0].Pages, 2)
		assert.Equal(t, 2, docs[0].Pages[1].Number)
	})

	t.Run("ShouldSniffPlainTextWithoutExtension", func(t *testing.T) {
		docs, err := e.Extract(ctx, []models.SourceFile{{Name: "README", Data: []byte("just some text")}})
		require.NoError(t, err)
		assert.Equal(t, "just some text", docs[0].Pages[0].Text)
	})

	t.Run("ShouldSkipUnsupportedFormats", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		_, err := e.Extract(ctx, []models.SourceFile{{Name: "image", Data: png}})
		assert.ErrorIs(t, err, models.ErrExtraction)
	})

	t.Run("ShouldStopWhenCancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Extract(cctx, []models.SourceFile{{Name: "a.txt", Data: []byte("x")}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ShouldRejectGarbagePDF", func(t *testing.T) {
		_, err := readPDFPages([]byte("not a pdf at all"))
		assert.Error(t, err)
	})
}
