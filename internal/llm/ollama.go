package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaLLM handles interactions with the Ollama generate API
type OllamaLLM struct {
	Client *api.Client
	Model  string
}

var _ Generator = (*OllamaLLM)(nil)

// NewOllamaLLM creates a new Ollama LLM client. An empty host falls back to OLLAMA_HOST.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = u
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaLLM{
		Client: client,
		Model:  model,
	}, nil
}

// ModelName returns the generation model id
func (o *OllamaLLM) ModelName() string {
	return o.Model
}

// Generate streams a completion and returns the concatenated text
func (o *OllamaLLM) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}
