package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/documind/documind/pkg/logger"
)

// DeleteCmd removes a document's embeddings from the vector store.
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a document's embeddings",
		RunE:  runDelete,
	}
	cmd.Flags().Int("doc-id", 0, "Document identifier")
	cmd.Flags().Int("user-id", 0, "Owning user identifier")
	_ = cmd.MarkFlagRequired("doc-id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func runDelete(cmd *cobra.Command, _ []string) error {
	ctx, cfg, err := setupContext(cmd)
	if err != nil {
		return err
	}
	docID, err := cmd.Flags().GetInt("doc-id")
	if err != nil {
		return fmt.Errorf("failed to get doc-id flag: %w", err)
	}
	userID, err := cmd.Flags().GetInt("user-id")
	if err != nil {
		return fmt.Errorf("failed to get user-id flag: %w", err)
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
	svc.DeleteDocumentEmbeddings(ctx, docID, userID)
	cmd.Printf("Deleted embeddings for document %d\n", docID)
	return nil
}
