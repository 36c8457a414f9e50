package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/embeddings/cybertron"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Adapter wraps a langchaingo embedder implementation and augments error
// reporting. The same adapter serves both document and query embedding.
type Adapter struct {
	provider  Provider
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

// New constructs a provider-backed embedder adapter. For the local provider
// this loads model weights, so construction doubles as warm-up.
func New(ctx context.Context, cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	options := []embeddings.Option{
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	}
	impl, err := buildProviderEmbedder(ctx, cfg, options...)
	if err != nil {
		return nil, err
	}
	return &Adapter{
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}, nil
}

// Wrap constructs an adapter around an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.Provider)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Adapter{
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}, nil
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int {
	return a.dimension
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// EnableCache initializes an LRU cache keyed by text hash.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("embedder %q: cache size must be greater than zero", a.provider)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder %q: init cache: %w", a.provider, err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedDocuments embeds a batch of chunk texts.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, a.withContext(err)
	}
	if len(vectors) != len(texts) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(vectors), len(texts)))
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string, consulting the cache when enabled.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	cache := a.getCache()
	if cache != nil {
		if vector, ok := cache.Get(cacheKey(text)); ok {
			return cloneVector(vector), nil
		}
	}
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, a.withContext(err)
	}
	if cache != nil && len(vector) > 0 {
		cache.Add(cacheKey(text), cloneVector(vector))
	}
	return vector, nil
}

func (a *Adapter) getCache() *lru.Cache[string, []float32] {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	return a.cache
}

func (a *Adapter) withContext(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("embedder %q (%s): %w", a.provider, a.model, err)
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

func buildProviderEmbedder(
	ctx context.Context,
	cfg *Config,
	options ...embeddings.Option,
) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case ProviderLocal:
		return buildLocalEmbedder(cfg, options...)
	case ProviderGoogle:
		return buildGoogleEmbedder(ctx, cfg, options...)
	case ProviderOpenAI:
		return buildOpenAIEmbedder(cfg, options...)
	default:
		return nil, fmt.Errorf("embedder provider %q is not supported", cfg.Provider)
	}
}

func buildLocalEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	cyOpts := make([]cybertron.Option, 0, 2)
	if model := strings.TrimSpace(cfg.Model); model != "" {
		cyOpts = append(cyOpts, cybertron.WithModel(model))
	}
	if dir := lookupString(cfg.Options, "models_dir"); dir != "" {
		cyOpts = append(cyOpts, cybertron.WithModelsDir(dir))
	}
	client, err := cybertron.NewCybertron(cyOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize local model: %w", cfg.Provider, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct local embedder: %w", cfg.Provider, err)
	}
	return embedder, nil
}

func buildGoogleEmbedder(
	ctx context.Context,
	cfg *Config,
	opts ...embeddings.Option,
) (embeddings.Embedder, error) {
	googleOpts := []googleai.Option{
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		googleOpts = append(googleOpts, googleai.WithAPIKey(cfg.APIKey))
	}
	client, err := googleai.New(ctx, googleOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize google client: %w", cfg.Provider, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct google embedder: %w", cfg.Provider, err)
	}
	return embedder, nil
}

func buildOpenAIEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	openaiOpts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		openaiOpts = append(openaiOpts, openai.WithToken(cfg.APIKey))
	}
	client, err := openai.New(openaiOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize openai client: %w", cfg.Provider, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct openai embedder: %w", cfg.Provider, err)
	}
	return embedder, nil
}
