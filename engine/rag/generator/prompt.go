package generator

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one prior message of the chat session.
type ConversationTurn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

const (
	// historyWindow bounds how many trailing turns enter the prompt.
	historyWindow = 10

	emptyHistoryPlaceholder = "No previous history."
	contextSeparator        = "\n\n---\n\n"
)

var titleCaser = cases.Title(language.English)

// RenderHistory formats the trailing conversation turns as "Role: content"
// lines, or a placeholder when there is no history.
func RenderHistory(history []ConversationTurn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		role := string(turn.Role)
		if role == "" {
			role = string(RoleUser)
		}
		lines = append(lines, titleCaser.String(role)+": "+turn.Content)
	}
	if len(lines) == 0 {
		return emptyHistoryPlaceholder
	}
	return strings.Join(lines, "\n")
}

// RenderContext joins retrieved excerpts with a visible separator so the
// model can tell where one excerpt ends and the next begins.
func RenderContext(excerpts []string) string {
	return strings.Join(excerpts, contextSeparator)
}

// BuildPrompt assembles the grounding prompt from the conversation history,
// the retrieved excerpts and the question.
func BuildPrompt(question string, excerpts []string, history []ConversationTurn) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering questions based on the provided documents.\n")
	b.WriteString("\nRecent conversation:\n")
	b.WriteString(RenderHistory(history))
	b.WriteString("\n\nRelevant document excerpts:\n")
	b.WriteString(RenderContext(excerpts))
	b.WriteString("\n\nUser question: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a clear, accurate answer based on the document excerpts above. ")
	b.WriteString("If the documents don't contain enough information to answer the question, say so clearly.\n")
	b.WriteString("\nAnswer:")
	return b.String()
}
