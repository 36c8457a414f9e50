package config

// Config is the root configuration for the documind pipeline.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	RAG      RAGConfig      `koanf:"rag"`
	Embedder EmbedderConfig `koanf:"embedder"`
	Model    ModelConfig    `koanf:"model"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"omitempty,oneof=debug info warn error disabled"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// RAGConfig controls chunking, retrieval and the vector store backend.
type RAGConfig struct {
	ChunkSize     int             `koanf:"chunk_size"     validate:"gt=0"`
	ChunkOverlap  int             `koanf:"chunk_overlap"  validate:"gte=0"`
	TopK          int             `koanf:"top_k"          validate:"gt=0"`
	Collection    string          `koanf:"collection"     validate:"required"`
	StoreProvider string          `koanf:"store_provider" validate:"oneof=filesystem qdrant"`
	StorePath     string          `koanf:"store_path"`
	StoreDSN      string          `koanf:"store_dsn"`
	StoreAPIKey   SensitiveString `koanf:"store_api_key"`
}

// EmbedderConfig selects the embedding model.
type EmbedderConfig struct {
	Provider  string          `koanf:"provider"   validate:"oneof=local google openai"`
	Model     string          `koanf:"model"      validate:"required"`
	APIKey    SensitiveString `koanf:"api_key"`
	Dimension int             `koanf:"dimension"  validate:"gt=0"`
	BatchSize int             `koanf:"batch_size" validate:"gt=0"`
}

// ModelConfig selects the chat model used for answer generation.
type ModelConfig struct {
	Provider string          `koanf:"provider" validate:"oneof=google openai"`
	Model    string          `koanf:"model"    validate:"required"`
	APIKey   SensitiveString `koanf:"api_key"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		RAG: RAGConfig{
			ChunkSize:     500,
			ChunkOverlap:  50,
			TopK:          5,
			Collection:    "documents",
			StoreProvider: "filesystem",
			StorePath:     "data/vector_store.json",
		},
		Embedder: EmbedderConfig{
			Provider:  "local",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			Dimension: 384,
			BatchSize: 32,
		},
		Model: ModelConfig{
			Provider: "google",
			Model:    "gemini-2.5-flash",
		},
	}
}
