package embedder

import (
	"errors"
	"fmt"
	"strings"
)

// Provider enumerates supported embedding backends.
type Provider string

const (
	// ProviderLocal runs a local sentence-transformers model via cybertron.
	// Weights are loaded at construction time and reused for every call, so
	// the warm-up cost is paid once per process.
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderOpenAI Provider = "openai"
)

const (
	DefaultModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimension = 384
	DefaultBatchSize = 32
)

// Config describes the embedding model shared by document and query
// embedding. Both sides must use the same model so vectors live in a common
// metric space.
type Config struct {
	Provider      Provider
	Model         string
	APIKey        string
	Dimension     int
	BatchSize     int
	StripNewLines bool
	// Options carries provider-specific settings, e.g. models_dir for local.
	Options map[string]any
}

// DefaultConfig returns the local all-MiniLM-L6-v2 configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:      ProviderLocal,
		Model:         DefaultModel,
		Dimension:     DefaultDimension,
		BatchSize:     DefaultBatchSize,
		StripNewLines: true,
	}
}

var (
	errMissingProvider  = errors.New("embedder provider is required")
	errMissingModel     = errors.New("embedder model is required")
	errInvalidDimension = errors.New("embedder dimension must be greater than zero")
	errInvalidBatchSize = errors.New("embedder batch size must be greater than zero")
)

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return errMissingProvider
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.Provider, errMissingModel)
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.Provider, errInvalidDimension)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.Provider, errInvalidBatchSize)
	}
	return nil
}

func lookupString(options map[string]any, key string) string {
	if len(options) == 0 {
		return ""
	}
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}
