package generator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/documind/documind/pkg/logger"
)

// Provider selects the chat completion backend.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderOpenAI Provider = "openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// User-facing responses. Answer never surfaces a Go error; every failure
// mode collapses into one of these strings.
const (
	MsgNoRelevantInformation = "I couldn't find any relevant information in the selected documents."
	MsgAPIKeyNotConfigured   = "Error: Google API key is not configured. " +
		"Please set GOOGLE_API_KEY in your .env file."
	MsgEmptyResponse = "I couldn't generate a response. Please try again."

	errorResponseFormat = "An error occurred while processing your question: %s"
)

// placeholderAPIKey is the sample value shipped in .env templates; it must be
// treated the same as an unset key.
const placeholderAPIKey = "your-google-api-key-here"

// ErrorResponse renders a failure as the user-facing error string.
func ErrorResponse(err error) string {
	return fmt.Sprintf(errorResponseFormat, err)
}

// Config describes the chat model used to generate answers.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
}

// Generator turns a prompt plus retrieved excerpts into a user-facing answer.
type Generator struct {
	cfg Config

	mu    sync.Mutex
	model llms.Model
}

// New constructs a Generator. The underlying model client is created lazily
// on first use so an unconfigured key fails at answer time with a friendly
// message instead of at startup.
func New(cfg Config) *Generator {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGoogle
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Generator{cfg: cfg}
}

// NewWithModel constructs a Generator around an existing model client.
func NewWithModel(cfg Config, model llms.Model) *Generator {
	g := New(cfg)
	g.model = model
	return g
}

// Answer builds the grounding prompt and asks the model for a completion.
// It never returns an error: failures are rendered as user-facing strings.
func (g *Generator) Answer(
	ctx context.Context,
	question string,
	excerpts []string,
	history []ConversationTurn,
) string {
	log := logger.FromContext(ctx)
	if len(excerpts) == 0 {
		return MsgNoRelevantInformation
	}
	if !g.keyConfigured() {
		return MsgAPIKeyNotConfigured
	}
	model, err := g.ensureModel(ctx)
	if err != nil {
		log.Error("failed to initialize chat model", "provider", g.cfg.Provider, "error", err)
		return fmt.Sprintf(errorResponseFormat, err)
	}
	prompt := BuildPrompt(question, excerpts, history)
	completion, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, llms.WithModel(g.cfg.Model))
	if err != nil {
		log.Error("chat completion failed", "model", g.cfg.Model, "error", err)
		return fmt.Sprintf(errorResponseFormat, err)
	}
	if strings.TrimSpace(completion) == "" {
		return MsgEmptyResponse
	}
	return completion
}

func (g *Generator) keyConfigured() bool {
	if g.model != nil {
		return true
	}
	key := strings.TrimSpace(g.cfg.APIKey)
	return key != "" && key != placeholderAPIKey
}

func (g *Generator) ensureModel(ctx context.Context) (llms.Model, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.model != nil {
		return g.model, nil
	}
	model, err := buildModel(ctx, g.cfg)
	if err != nil {
		return nil, err
	}
	g.model = model
	return g.model, nil
}

func buildModel(ctx context.Context, cfg Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderGoogle:
		return googleai.New(ctx,
			googleai.WithDefaultModel(cfg.Model),
			googleai.WithAPIKey(cfg.APIKey),
		)
	case ProviderOpenAI:
		return openai.New(
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		)
	default:
		return nil, fmt.Errorf("generator: provider %q is not supported", cfg.Provider)
	}
}
