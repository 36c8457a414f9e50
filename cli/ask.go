package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/documind/documind/engine/rag/generator"
	"github.com/documind/documind/pkg/logger"
)

// AskCmd answers a question over previously indexed documents.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the selected documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	cmd.Flags().Int("user-id", 0, "Owning user identifier")
	cmd.Flags().IntSlice("docs", nil, "Document identifiers to search in")
	cmd.Flags().String("history", "", "Path to a JSON file with prior conversation turns")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("docs")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setupContext(cmd)
	if err != nil {
		return err
	}
	userID, err := cmd.Flags().GetInt("user-id")
	if err != nil {
		return fmt.Errorf("failed to get user-id flag: %w", err)
	}
	docs, err := cmd.Flags().GetIntSlice("docs")
	if err != nil {
		return fmt.Errorf("failed to get docs flag: %w", err)
	}
	historyFile, err := cmd.Flags().GetString("history")
	if err != nil {
		return fmt.Errorf("failed to get history flag: %w", err)
	}
	history, err := loadHistory(historyFile)
	if err != nil {
		return err
	}
	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(ctx); closeErr != nil {
			logger.FromContext(ctx).Warn("failed to close vector store", "error", closeErr)
		}
	}()
	question := strings.Join(args, " ")
	answer := svc.AnswerQuestion(ctx, question, userID, docs, history)
	cmd.Println(answer)
	return nil
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// loadHistory reads prior conversation turns from a JSON array of
// {"role", "content"} objects.
func loadHistory(path string) ([]generator.ConversationTurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", path, err)
	}
	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", path, err)
	}
	turns := make([]generator.ConversationTurn, 0, len(entries))
	for _, entry := range entries {
		turns = append(turns, generator.ConversationTurn{
			Role:    generator.Role(entry.Role),
			Content: entry.Content,
		})
	}
	return turns, nil
}
