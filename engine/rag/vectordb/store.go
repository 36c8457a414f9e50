package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	errMissingID        = errors.New("vector_db id is required")
	errMissingProvider  = errors.New("vector_db provider is required")
	errMissingDSN       = errors.New("vector_db dsn is required")
	errMissingPath      = errors.New("vector_db path is required")
	errInvalidDimension = errors.New("vector_db dimension must be greater than zero")
)

// New instantiates a vector store backed by the requested provider.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return instantiateStore(ctx, cfg)
}

func instantiateStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Provider {
	case ProviderFilesystem:
		return newFileStore(cfg)
	case ProviderQdrant:
		return newQdrantStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("vector_db %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("vector_db config is required")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingProvider)
	}
	cfg.DSN = strings.TrimSpace(cfg.DSN)
	cfg.Path = strings.TrimSpace(cfg.Path)
	switch cfg.Provider {
	case ProviderQdrant:
		if cfg.DSN == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingDSN)
		}
	case ProviderFilesystem:
		if cfg.Path == "" {
			return fmt.Errorf("vector_db %q: %w", cfg.ID, errMissingPath)
		}
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("vector_db %q: %w", cfg.ID, errInvalidDimension)
	}
	return nil
}

// metadataMatches reports whether metadata satisfies every exact-match
// predicate in filters and every set-membership predicate in anyOf.
func metadataMatches(metadata map[string]any, filters map[string]string, anyOf map[string][]string) bool {
	for key, expected := range filters {
		value, ok := metadata[key]
		if !ok || metadataString(value) != expected {
			return false
		}
	}
	for key, allowed := range anyOf {
		value, ok := metadata[key]
		if !ok {
			return false
		}
		rendered := metadataString(value)
		found := false
		for _, candidate := range allowed {
			if rendered == candidate {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// metadataString normalizes metadata values for comparison. JSON round-trips
// turn ints into float64, so whole floats render without a fraction.
func metadataString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
