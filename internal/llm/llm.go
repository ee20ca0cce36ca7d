// Package llm builds grounded prompts and turns them into answers
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdf-rag/internal/models"
)

const (
	DefaultTemperature     = 0.2
	DefaultMaxOutputTokens = 512
)

// GenerateOptions holds sampling parameters for a single completion
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string
}

// BuildPrompt creates a prompt that restricts the model to the retrieved context.
// Context entries appear in rank order.
func BuildPrompt(question string, results []models.SearchResult) string {
	var promptBuilder strings.Builder

	// System instruction
	promptBuilder.WriteString("You are a helpful assistant answering questions about the user's documents.\n")
	promptBuilder.WriteString("Answer the question strictly using the provided context. Do NOT use outside knowledge.\n")
	promptBuilder.WriteString("If the context does not contain enough information, say so clearly and explain only what can be inferred from it. Never make up facts.\n")
	promptBuilder.WriteString("Write at least 5 complete sentences in simple, clear language.\n\n")

	promptBuilder.WriteString("Context:\n")
	for _, r := range results {
		fmt.Fprintf(&promptBuilder, "(%s, Page %d) %s\n\n", r.Chunk.Source, r.Chunk.Page, r.Chunk.Text)
	}

	promptBuilder.WriteString("Question: " + strings.TrimSpace(question) + "\n\n")
	promptBuilder.WriteString("Answer: ")

	return promptBuilder.String()
}

// Synthesizer answers a question from retrieved chunks
type Synthesizer struct {
	Generator Generator
	Options   GenerateOptions
	Timeout   time.Duration
}

// NewSynthesizer creates a synthesizer with the default sampling options
func NewSynthesizer(gen Generator) *Synthesizer {
	return &Synthesizer{
		Generator: gen,
		Options: GenerateOptions{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxOutputTokens,
		},
	}
}

// Synthesize returns the trimmed answer text. Generator failures and empty
// answers fail with ErrSynthesis, deadlines with ErrTimeout.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	prompt := BuildPrompt(question, results)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text, err := s.Generator.Generate(ctx, prompt, s.Options)
	if err != nil {
		return "", models.NewContextError(ctx, models.ErrSynthesis, "synthesize", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.NewError(models.ErrSynthesis, "synthesize", errors.New("model returned an empty answer"))
	}
	return text, nil
}
