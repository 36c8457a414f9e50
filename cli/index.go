package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/documind/documind/engine/rag"
	"github.com/documind/documind/pkg/logger"
)

// IndexCmd ingests one document into the vector store.
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Parse, chunk, embed and store a document",
		RunE:  runIndex,
	}
	cmd.Flags().String("file", "", "Path to the document to index")
	cmd.Flags().String("ext", "", "Document format (pdf, docx, txt); defaults to the file extension")
	cmd.Flags().Int("doc-id", 0, "Document identifier")
	cmd.Flags().String("doc-name", "", "Document display name; defaults to the file name")
	cmd.Flags().Int("user-id", 0, "Owning user identifier")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("doc-id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx, cfg, err := setupContext(cmd)
	if err != nil {
		return err
	}
	ref, err := documentRefFromFlags(cmd)
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
	if !svc.IndexDocument(ctx, ref) {
		return fmt.Errorf("failed to index %s", ref.Path)
	}
	cmd.Printf("Indexed %s (document %d)\n", ref.Name, ref.ID)
	return nil
}

func documentRefFromFlags(cmd *cobra.Command) (rag.DocumentRef, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return rag.DocumentRef{}, fmt.Errorf("failed to get file flag: %w", err)
	}
	ext, err := cmd.Flags().GetString("ext")
	if err != nil {
		return rag.DocumentRef{}, fmt.Errorf("failed to get ext flag: %w", err)
	}
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(file), ".")
	}
	docID, err := cmd.Flags().GetInt("doc-id")
	if err != nil {
		return rag.DocumentRef{}, fmt.Errorf("failed to get doc-id flag: %w", err)
	}
	docName, err := cmd.Flags().GetString("doc-name")
	if err != nil {
		return rag.DocumentRef{}, fmt.Errorf("failed to get doc-name flag: %w", err)
	}
	if docName == "" {
		docName = filepath.Base(file)
	}
	userID, err := cmd.Flags().GetInt("user-id")
	if err != nil {
		return rag.DocumentRef{}, fmt.Errorf("failed to get user-id flag: %w", err)
	}
	return rag.DocumentRef{
		ID:        docID,
		Name:      docName,
		Path:      file,
		Extension: ext,
		UserID:    userID,
	}, nil
}
