package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/documind/documind/engine/rag"
	"github.com/documind/documind/engine/rag/generator"
)

func TestRootCmd(t *testing.T) {
	t.Run("Should register the pipeline commands", func(t *testing.T) {
		root := RootCmd()
		names := make([]string, 0, 3)
		for _, sub := range root.Commands() {
			names = append(names, sub.Name())
		}
		assert.Contains(t, names, "index")
		assert.Contains(t, names, "ask")
		assert.Contains(t, names, "delete")
	})
}

func TestDocumentRefFromFlags(t *testing.T) {
	t.Run("Should derive extension and name from the file path", func(t *testing.T) {
		cmd := IndexCmd()
		require.NoError(t, cmd.Flags().Set("file", "/tmp/reports/annual.pdf"))
		require.NoError(t, cmd.Flags().Set("doc-id", "12"))
		require.NoError(t, cmd.Flags().Set("user-id", "7"))
		ref, err := documentRefFromFlags(cmd)
		require.NoError(t, err)
		assert.Equal(t, rag.DocumentRef{
			ID:        12,
			Name:      "annual.pdf",
			Path:      "/tmp/reports/annual.pdf",
			Extension: "pdf",
			UserID:    7,
		}, ref)
	})
	t.Run("Should prefer explicit extension and name", func(t *testing.T) {
		cmd := IndexCmd()
		require.NoError(t, cmd.Flags().Set("file", "/tmp/upload.bin"))
		require.NoError(t, cmd.Flags().Set("ext", "docx"))
		require.NoError(t, cmd.Flags().Set("doc-name", "Quarterly Report"))
		require.NoError(t, cmd.Flags().Set("doc-id", "3"))
		require.NoError(t, cmd.Flags().Set("user-id", "7"))
		ref, err := documentRefFromFlags(cmd)
		require.NoError(t, err)
		assert.Equal(t, "docx", ref.Extension)
		assert.Equal(t, "Quarterly Report", ref.Name)
	})
}

func TestLoadHistory(t *testing.T) {
	t.Run("Should return nil without a file", func(t *testing.T) {
		turns, err := loadHistory("")
		require.NoError(t, err)
		assert.Nil(t, turns)
	})
	t.Run("Should parse role and content pairs", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		payload := `[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello"}]`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
		turns, err := loadHistory(path)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, generator.RoleUser, turns[0].Role)
		assert.Equal(t, "Hello", turns[1].Content)
	})
	t.Run("Should fail on malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := loadHistory(path)
		require.Error(t, err)
	})
}
