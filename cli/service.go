package cli

import (
	"github.com/documind/documind/engine/rag"
	"github.com/documind/documind/engine/rag/chunk"
	"github.com/documind/documind/engine/rag/embedder"
	"github.com/documind/documind/engine/rag/generator"
	"github.com/documind/documind/engine/rag/vectordb"
	"github.com/documind/documind/pkg/config"
)

// buildService maps the loaded configuration onto the pipeline façade.
func buildService(cfg *config.Config) (*rag.Service, error) {
	vectorCfg := &vectordb.Config{
		ID:         cfg.RAG.Collection,
		Provider:   vectordb.Provider(cfg.RAG.StoreProvider),
		DSN:        cfg.RAG.StoreDSN,
		Path:       cfg.RAG.StorePath,
		Collection: cfg.RAG.Collection,
		Dimension:  cfg.Embedder.Dimension,
	}
	if key := cfg.RAG.StoreAPIKey.Value(); key != "" {
		vectorCfg.Auth = map[string]string{"api_key": key}
	}
	return rag.NewService(rag.Config{
		Chunk: chunk.Settings{
			Size:    cfg.RAG.ChunkSize,
			Overlap: cfg.RAG.ChunkOverlap,
		},
		TopK: cfg.RAG.TopK,
		Embedder: &embedder.Config{
			Provider:  embedder.Provider(cfg.Embedder.Provider),
			Model:     cfg.Embedder.Model,
			APIKey:    cfg.Embedder.APIKey.Value(),
			Dimension: cfg.Embedder.Dimension,
			BatchSize: cfg.Embedder.BatchSize,
		},
		VectorDB: vectorCfg,
		Generator: generator.Config{
			Provider: generator.Provider(cfg.Model.Provider),
			Model:    cfg.Model.Model,
			APIKey:   cfg.Model.APIKey.Value(),
		},
	})
}
