package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	calls    int
	response string
	err      error
	prompt   string
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.calls++
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func TestGenerator_Answer(t *testing.T) {
	ctx := context.Background()
	t.Run("Should return the completion for a grounded question", func(t *testing.T) {
		model := &fakeModel{response: "The warranty lasts two years."}
		gen := NewWithModel(Config{}, model)
		answer := gen.Answer(ctx, "How long is the warranty?", []string{"The warranty lasts two years."}, nil)
		assert.Equal(t, "The warranty lasts two years.", answer)
		assert.Equal(t, 1, model.calls)
		assert.Contains(t, model.prompt, "User question: How long is the warranty?")
		assert.Contains(t, model.prompt, "The warranty lasts two years.")
	})
	t.Run("Should short-circuit without a model call when no excerpts exist", func(t *testing.T) {
		model := &fakeModel{response: "unused"}
		gen := NewWithModel(Config{}, model)
		answer := gen.Answer(ctx, "anything", nil, nil)
		assert.Equal(t, MsgNoRelevantInformation, answer)
		assert.Equal(t, 0, model.calls)
	})
	t.Run("Should report a missing key without a model call", func(t *testing.T) {
		gen := New(Config{APIKey: ""})
		answer := gen.Answer(ctx, "anything", []string{"excerpt"}, nil)
		assert.Equal(t, MsgAPIKeyNotConfigured, answer)
	})
	t.Run("Should treat the template key as unconfigured", func(t *testing.T) {
		gen := New(Config{APIKey: placeholderAPIKey})
		answer := gen.Answer(ctx, "anything", []string{"excerpt"}, nil)
		assert.Equal(t, MsgAPIKeyNotConfigured, answer)
	})
	t.Run("Should render generation failures as an error message", func(t *testing.T) {
		model := &fakeModel{err: errors.New("quota exceeded")}
		gen := NewWithModel(Config{}, model)
		answer := gen.Answer(ctx, "anything", []string{"excerpt"}, nil)
		assert.Equal(t, "An error occurred while processing your question: quota exceeded", answer)
	})
	t.Run("Should report an empty completion", func(t *testing.T) {
		model := &fakeModel{response: "   "}
		gen := NewWithModel(Config{}, model)
		answer := gen.Answer(ctx, "anything", []string{"excerpt"}, nil)
		assert.Equal(t, MsgEmptyResponse, answer)
	})
}

func TestRenderHistory(t *testing.T) {
	t.Run("Should render a placeholder when history is empty", func(t *testing.T) {
		assert.Equal(t, "No previous history.", RenderHistory(nil))
	})
	t.Run("Should capitalize roles", func(t *testing.T) {
		out := RenderHistory([]ConversationTurn{
			{Role: RoleUser, Content: "Hello"},
			{Role: RoleAssistant, Content: "Hi there"},
		})
		assert.Equal(t, "User: Hello\nAssistant: Hi there", out)
	})
	t.Run("Should default a missing role to user", func(t *testing.T) {
		out := RenderHistory([]ConversationTurn{{Content: "Hello"}})
		assert.Equal(t, "User: Hello", out)
	})
	t.Run("Should keep only the trailing ten turns", func(t *testing.T) {
		turns := make([]ConversationTurn, 0, 12)
		for i := 0; i < 12; i++ {
			turns = append(turns, ConversationTurn{
				Role:      RoleUser,
				Content:   string(rune('a' + i)),
				Timestamp: time.Now(),
			})
		}
		out := RenderHistory(turns)
		assert.NotContains(t, out, "User: a\n")
		assert.NotContains(t, out, "User: b\n")
		assert.Contains(t, out, "User: c")
		assert.Contains(t, out, "User: l")
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("Should include history, excerpts and the question", func(t *testing.T) {
		prompt := BuildPrompt(
			"What is the refund policy?",
			[]string{"Refunds within 30 days.", "Contact support first."},
			[]ConversationTurn{{Role: RoleUser, Content: "Hi"}},
		)
		assert.Contains(t, prompt, "Recent conversation:\nUser: Hi")
		assert.Contains(t, prompt, "Refunds within 30 days.\n\n---\n\nContact support first.")
		assert.Contains(t, prompt, "User question: What is the refund policy?")
		require.True(t, len(prompt) > 0)
		assert.Contains(t, prompt, "Answer:")
	})
}
