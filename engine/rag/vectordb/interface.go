package vectordb

import "context"

// Provider enumerates supported vector store backends.
type Provider string

const (
	// ProviderFilesystem persists embeddings to a local JSON-snapshot store.
	ProviderFilesystem Provider = "filesystem"
	ProviderQdrant     Provider = "qdrant"
)

const defaultTopK = 5

// Record represents a chunk persisted to the vector store.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]any
}

// SearchOptions controls similarity search execution. Filters are
// exact-match predicates; AnyOf entries match when the metadata value equals
// any of the listed values. All predicates are ANDed together.
type SearchOptions struct {
	TopK     int
	MinScore float64
	Filters  map[string]string
	AnyOf    map[string][]string
}

// Match captures a similarity search result.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Filter specifies delete criteria: explicit ids, or a metadata conjunction.
type Filter struct {
	IDs      []string
	Metadata map[string]string
}

// Store exposes the minimal contract for ingestion and retrieval.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Delete(ctx context.Context, filter Filter) error
	Close(ctx context.Context) error
}

// Config captures normalized connection details for a vector store.
type Config struct {
	ID         string
	Provider   Provider
	DSN        string
	Path       string
	Collection string
	Metric     string
	Dimension  int
	Auth       map[string]string
}
