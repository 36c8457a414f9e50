package rag

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/documind/documind/engine/rag/chunk"
	"github.com/documind/documind/engine/rag/embedder"
	"github.com/documind/documind/engine/rag/generator"
	"github.com/documind/documind/engine/rag/parser"
	"github.com/documind/documind/engine/rag/vectordb"
	"github.com/documind/documind/pkg/logger"
)

// Metadata keys attached to every persisted chunk.
const (
	metaUserID       = "user_id"
	metaDocumentID   = "document_id"
	metaDocumentName = "document_name"
	metaChunkIndex   = "chunk_index"
)

// ErrEmptyContent reports a document that parsed successfully but yielded no
// usable text after chunking.
var ErrEmptyContent = errors.New("rag: document contains no extractable text")

// DocumentRef identifies an uploaded document on disk.
type DocumentRef struct {
	ID        int
	Name      string
	Path      string
	Extension string
	UserID    int
}

// Embedder is the slice of the embedding adapter the service needs.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	BatchSize() int
}

// AnswerGenerator produces a user-facing answer from retrieved excerpts.
type AnswerGenerator interface {
	Answer(
		ctx context.Context,
		question string,
		excerpts []string,
		history []generator.ConversationTurn,
	) string
}

// Config wires the pipeline stages together.
type Config struct {
	Chunk     chunk.Settings
	TopK      int
	Embedder  *embedder.Config
	VectorDB  *vectordb.Config
	Generator generator.Config
}

// Service is the façade over the full pipeline: parse, chunk, embed, store,
// retrieve and generate. All exported methods swallow failures; indexing
// reports success as a bool and answering returns user-facing strings.
type Service struct {
	cfg       Config
	processor *chunk.Processor
	gen       AnswerGenerator

	embedOnce sync.Once
	embedErr  error
	embed     Embedder

	storeOnce    sync.Once
	storeErr     error
	store        vectordb.Store
	releaseStore func(context.Context) error
}

// Option overrides a lazily-built dependency, mainly for tests.
type Option func(*Service)

// WithEmbedder injects a pre-built embedding adapter.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) {
		s.embedOnce.Do(func() { s.embed = e })
	}
}

// WithStore injects a pre-built vector store.
func WithStore(store vectordb.Store) Option {
	return func(s *Service) {
		s.storeOnce.Do(func() { s.store = store })
	}
}

// WithGenerator injects a pre-built answer generator.
func WithGenerator(g AnswerGenerator) Option {
	return func(s *Service) {
		s.gen = g
	}
}

// NewService builds the pipeline façade. Heavy dependencies (embedding model,
// store connection) are initialized on first use and then shared across
// calls.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Chunk.Size == 0 && cfg.Chunk.Overlap == 0 {
		cfg.Chunk = chunk.DefaultSettings()
	}
	if cfg.Embedder == nil {
		cfg.Embedder = embedder.DefaultConfig()
	}
	processor, err := chunk.NewProcessor(cfg.Chunk)
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, processor: processor}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		s.gen = generator.New(cfg.Generator)
	}
	return s, nil
}

// Close releases the shared vector store reference, if one was acquired.
func (s *Service) Close(ctx context.Context) error {
	if s.releaseStore == nil {
		return nil
	}
	return s.releaseStore(ctx)
}

// IndexDocument parses, chunks, embeds and persists a document. It returns
// false on any failure, logging the cause; it never returns an error to the
// caller.
func (s *Service) IndexDocument(ctx context.Context, ref DocumentRef) bool {
	log := logger.FromContext(ctx).With("document_id", ref.ID, "document_name", ref.Name)
	format, err := parser.ParseFormat(ref.Extension)
	if err != nil {
		log.Error("unsupported document format", "extension", ref.Extension, "error", err)
		return false
	}
	text, err := parser.Parse(ref.Path, format)
	if err != nil {
		log.Error("failed to parse document", "error", err)
		return false
	}
	chunks := s.processor.Process(text)
	if len(chunks) == 0 {
		log.Warn("no text extracted from document", "error", ErrEmptyContent)
		return false
	}
	embed, err := s.ensureEmbedder(ctx)
	if err != nil {
		log.Error("failed to initialize embedder", "error", err)
		return false
	}
	store, err := s.ensureStore(ctx)
	if err != nil {
		log.Error("failed to initialize vector store", "error", err)
		return false
	}
	records, err := s.embedChunks(ctx, embed, ref, chunks)
	if err != nil {
		log.Error("failed to embed document chunks", "error", err)
		return false
	}
	if err := store.Upsert(ctx, records); err != nil {
		log.Error("failed to persist document chunks", "error", err)
		return false
	}
	log.Info("indexed document", "chunks", len(chunks))
	return true
}

// embedChunks runs the embedding model over the chunks in batches and tags
// each resulting record with ownership metadata.
func (s *Service) embedChunks(
	ctx context.Context,
	embed Embedder,
	ref DocumentRef,
	chunks []string,
) ([]vectordb.Record, error) {
	batchSize := embed.BatchSize()
	if batchSize <= 0 {
		batchSize = len(chunks)
	}
	records := make([]vectordb.Record, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		vectors, err := embed.EmbedDocuments(ctx, chunks[start:end])
		if err != nil {
			return nil, err
		}
		for i, vector := range vectors {
			index := start + i
			records = append(records, vectordb.Record{
				ID:        uuid.NewString(),
				Text:      chunks[index],
				Embedding: vector,
				Metadata: map[string]any{
					metaUserID:       strconv.Itoa(ref.UserID),
					metaDocumentID:   strconv.Itoa(ref.ID),
					metaDocumentName: ref.Name,
					metaChunkIndex:   index,
				},
			})
		}
	}
	return records, nil
}

// DeleteDocumentEmbeddings removes every chunk of a document owned by the
// given user. Failures are logged and swallowed; deleting a document that
// was never indexed is a no-op.
func (s *Service) DeleteDocumentEmbeddings(ctx context.Context, documentID, userID int) {
	log := logger.FromContext(ctx).With("document_id", documentID, "user_id", userID)
	store, err := s.ensureStore(ctx)
	if err != nil {
		log.Error("failed to initialize vector store", "error", err)
		return
	}
	err = store.Delete(ctx, vectordb.Filter{
		Metadata: map[string]string{
			metaDocumentID: strconv.Itoa(documentID),
			metaUserID:     strconv.Itoa(userID),
		},
	})
	if err != nil {
		log.Error("failed to delete document embeddings", "error", err)
		return
	}
	log.Info("deleted document embeddings")
}

// AnswerQuestion embeds the question, retrieves the closest chunks from the
// selected documents and asks the generator for an answer. It always returns
// a displayable string.
func (s *Service) AnswerQuestion(
	ctx context.Context,
	question string,
	userID int,
	selectedDocumentIDs []int,
	history []generator.ConversationTurn,
) string {
	log := logger.FromContext(ctx).With("user_id", userID)
	excerpts, err := s.retrieve(ctx, question, userID, selectedDocumentIDs)
	if err != nil {
		log.Error("retrieval failed", "error", err)
		return generator.ErrorResponse(err)
	}
	return s.gen.Answer(ctx, question, excerpts, history)
}

func (s *Service) retrieve(
	ctx context.Context,
	question string,
	userID int,
	selectedDocumentIDs []int,
) ([]string, error) {
	if strings.TrimSpace(question) == "" || len(selectedDocumentIDs) == 0 {
		return nil, nil
	}
	embed, err := s.ensureEmbedder(ctx)
	if err != nil {
		return nil, err
	}
	store, err := s.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	query, err := embed.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	docIDs := make([]string, 0, len(selectedDocumentIDs))
	for _, id := range selectedDocumentIDs {
		docIDs = append(docIDs, strconv.Itoa(id))
	}
	topK := s.cfg.TopK
	matches, err := store.Search(ctx, query, vectordb.SearchOptions{
		TopK:    topK,
		Filters: map[string]string{metaUserID: strconv.Itoa(userID)},
		AnyOf:   map[string][]string{metaDocumentID: docIDs},
	})
	if err != nil {
		return nil, err
	}
	excerpts := make([]string, 0, len(matches))
	for _, match := range matches {
		excerpts = append(excerpts, match.Text)
	}
	return excerpts, nil
}

func (s *Service) ensureEmbedder(ctx context.Context) (Embedder, error) {
	s.embedOnce.Do(func() {
		adapter, err := embedder.New(ctx, s.cfg.Embedder)
		if err != nil {
			s.embedErr = err
			return
		}
		s.embed = adapter
	})
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return s.embed, nil
}

func (s *Service) ensureStore(ctx context.Context) (vectordb.Store, error) {
	s.storeOnce.Do(func() {
		store, release, err := vectordb.AcquireShared(ctx, s.cfg.VectorDB)
		if err != nil {
			s.storeErr = err
			return
		}
		s.store = store
		s.releaseStore = release
	})
	if s.storeErr != nil {
		return nil, s.storeErr
	}
	return s.store, nil
}
