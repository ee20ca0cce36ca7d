package processor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pdf-rag/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// pdfPages returns the raw text of every page of a PDF, indexed from page 1.
// Pages without extractable text are returned as empty strings.
var pdfPages = readPDFPages

// Extractor turns uploaded files into cleaned, page-numbered text
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract extracts the text-bearing pages of every file. Files that cannot be
// read are skipped with a warning. It fails with ErrExtraction when no page
// survives across all inputs.
func (e *Extractor) Extract(ctx context.Context, files []models.SourceFile) ([]models.SourceDocument, error) {
	var docs []models.SourceDocument
	total := 0

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, models.NewError(models.ErrExtraction, "extract", err)
		}

		var raw []string
		var err error
		switch kind := detectFormat(f); kind {
		case formatPDF:
			raw, err = pdfPages(f.Data)
		case formatText:
			raw = textPages(f.Data)
		default:
			e.log.Warn().Str("file", f.Name).Str("mime", kind).Msg("Skipping unsupported file")
			continue
		}
		if err != nil {
			e.log.Warn().Str("file", f.Name).Err(err).Msg("Skipping unreadable file")
			continue
		}

		doc := models.SourceDocument{Name: f.Name}
		for i, text := range raw {
			text = Clean(text)
			if text == "" {
				continue
			}
			doc.Pages = append(doc.Pages, models.Page{Source: f.Name, Number: i + 1, Text: text})
		}
		e.log.Debug().Str("file", f.Name).Int("pages", len(raw)).Int("text_pages", len(doc.Pages)).Msg("Extracted document")

		if len(doc.Pages) > 0 {
			docs = append(docs, doc)
			total += len(doc.Pages)
		}
	}

	if total == 0 {
		return nil, models.NewError(models.ErrExtraction, "extract", fmt.Errorf("no extractable text in %d file(s)", len(files)))
	}
	return docs, nil
}

const (
	formatPDF  = "application/pdf"
	formatText = "text/plain"
)

// detectFormat picks a reader by extension first and falls back to content sniffing
func detectFormat(f models.SourceFile) string {
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".pdf":
		return formatPDF
	case ".txt", ".md", ".text":
		return formatText
	}

	mt := mimetype.Detect(f.Data)
	switch {
	case mt.Is(formatPDF):
		return formatPDF
	case mt.Is(formatText):
		return formatText
	}
	return mt.String()
}

// textPages splits a plain text dump on form feeds, one page per segment
func textPages(data []byte) []string {
	return strings.Split(string(data), "\f")
}

// readPDFPages reads a PDF from memory page by page
func readPDFPages(data []byte) (pages []string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	n := r.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}
