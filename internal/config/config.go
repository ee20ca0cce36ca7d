// Package config loads engine configuration from YAML and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend providers
const (
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// EmbedderConfig configures the embedding backend and batching
type EmbedderConfig struct {
	Provider      string        `yaml:"provider"`
	Host          string        `yaml:"host"`
	BatchSize     int           `yaml:"batch_size"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	CacheSize     int           `yaml:"cache_size"`
}

// LLMConfig configures the generation backend
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Host      string        `yaml:"host"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ChunkerConfig configures word-window chunking
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures search
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// HistoryConfig configures the optional Postgres answer history
type HistoryConfig struct {
	DSN    string `yaml:"dsn"`
	DSNEnv string `yaml:"dsn_env"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration. The top-level keys are the options
// recognized by the engine core; the sections tune the surrounding stack.
type Config struct {
	EmbeddingModelID string   `yaml:"embedding_model_id"`
	LLMModelID       string   `yaml:"llm_model_id"`
	LLMAPIKey        string   `yaml:"llm_api_key,omitempty"`
	Temperature      *float64 `yaml:"temperature"`
	MaxOutputTokens  int      `yaml:"max_output_tokens"`

	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads a config from path. A missing file yields the defaults.
// Secrets are taken from the environment when the named variables are set.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg
}

// DefaultPath returns ~/.config/pdfqa/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "pdfqa", "config.yaml")
}

func applyDefaults(cfg *Config) {
	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = ProviderOllama
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOllama
	}
	if cfg.EmbeddingModelID == "" {
		cfg.EmbeddingModelID = "all-minilm"
		if cfg.Embedder.Provider == ProviderGoogleAI {
			cfg.EmbeddingModelID = "text-embedding-004"
		}
	}
	if cfg.LLMModelID == "" {
		cfg.LLMModelID = "llama3.2"
		if cfg.LLM.Provider == ProviderGoogleAI {
			cfg.LLMModelID = "gemini-2.5-flash"
		}
	}
	if cfg.Temperature == nil {
		t := 0.2
		cfg.Temperature = &t
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 512
	}

	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.MaxConcurrent == 0 {
		cfg.Embedder.MaxConcurrent = 4
	}
	if cfg.Embedder.Timeout == 0 {
		cfg.Embedder.Timeout = 30 * time.Second
	}
	if cfg.Embedder.MaxRetries == 0 {
		cfg.Embedder.MaxRetries = 3
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 400
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.History.DSNEnv == "" {
		cfg.History.DSNEnv = "DATABASE_URL"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func applyEnv(cfg *Config) {
	if key := os.Getenv(cfg.LLM.APIKeyEnv); key != "" {
		cfg.LLMAPIKey = key
	}
	if cfg.History.DSN == "" {
		cfg.History.DSN = os.Getenv(cfg.History.DSNEnv)
	}
}

// Validate checks ranges and provider requirements
func (c *Config) Validate() error {
	var errs []error
	for _, p := range []struct{ name, value string }{
		{"embedder.provider", c.Embedder.Provider},
		{"llm.provider", c.LLM.Provider},
	} {
		if p.value != ProviderOllama && p.value != ProviderGoogleAI {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", p.name, p.value))
		}
	}
	if (c.Embedder.Provider == ProviderGoogleAI || c.LLM.Provider == ProviderGoogleAI) && c.LLMAPIKey == "" {
		errs = append(errs, fmt.Errorf("llm_api_key: required for provider %q (set %s)", ProviderGoogleAI, c.LLM.APIKeyEnv))
	}
	if t := *c.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("temperature: must be between 0 and 2, got %g", t))
	}
	if c.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("max_output_tokens: must be positive, got %d", c.MaxOutputTokens))
	}
	if c.Chunker.Size < 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		errs = append(errs, fmt.Errorf("chunker: overlap %d must be smaller than size %d", c.Chunker.Overlap, c.Chunker.Size))
	}
	if c.Retrieval.TopK < 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k: must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Embedder.BatchSize < 0 || c.Embedder.MaxConcurrent < 0 || c.Embedder.MaxRetries < 0 || c.Embedder.CacheSize < 0 {
		errs = append(errs, errors.New("embedder: batch_size, max_concurrent, max_retries and cache_size must not be negative"))
	}
	return errors.Join(errs...)
}
