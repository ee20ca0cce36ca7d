package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// LangchainLLM adapts a langchaingo model
type LangchainLLM struct {
	Model llms.Model
	Name  string
}

var _ Generator = (*LangchainLLM)(nil)

// NewGoogleAILLM creates a Gemini generator. The key is required.
func NewGoogleAILLM(ctx context.Context, apiKey, model string) (*LangchainLLM, error) {
	if apiKey == "" {
		return nil, errors.New("google ai generator requires an API key")
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize google ai client: %w", err)
	}
	return &LangchainLLM{Model: client, Name: model}, nil
}

// ModelName returns the generation model id
func (l *LangchainLLM) ModelName() string {
	return l.Name
}

// Generate runs a single-prompt completion
func (l *LangchainLLM) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, l.Model, prompt,
		llms.WithTemperature(opts.Temperature),
		llms.WithMaxTokens(opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	return text, nil
}
