package vectordb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQdrantFilter(t *testing.T) {
	t.Run("Should return nil without predicates", func(t *testing.T) {
		assert.Nil(t, buildQdrantFilter(nil, nil))
	})
	t.Run("Should combine exact and set-membership predicates", func(t *testing.T) {
		filter := buildQdrantFilter(
			map[string]string{"user_id": "7"},
			map[string][]string{"document_id": {"1", "2"}},
		)
		require.NotNil(t, filter)
		must, ok := filter["must"].([]any)
		require.True(t, ok)
		require.Len(t, must, 2)
		assert.Contains(t, must, map[string]any{
			"key":   "user_id",
			"match": map[string]any{"value": "7"},
		})
		assert.Contains(t, must, map[string]any{
			"key":   "document_id",
			"match": map[string]any{"any": []string{"1", "2"}},
		})
	})
}

func TestMapQdrantResults(t *testing.T) {
	t.Run("Should lift text out of the payload", func(t *testing.T) {
		matches := mapQdrantResults([]qdrantSearchResult{
			{
				ID:    "a",
				Score: 0.9,
				Payload: map[string]any{
					"text":    "chunk text",
					"user_id": "7",
				},
			},
		}, 0)
		require.Len(t, matches, 1)
		assert.Equal(t, "chunk text", matches[0].Text)
		assert.Equal(t, map[string]any{"user_id": "7"}, matches[0].Metadata)
	})
	t.Run("Should drop results below the score threshold", func(t *testing.T) {
		matches := mapQdrantResults([]qdrantSearchResult{
			{ID: "low", Score: 0.1},
			{ID: "high", Score: 0.8},
		}, 0.5)
		require.Len(t, matches, 1)
		assert.Equal(t, "high", matches[0].ID)
	})
}

func TestChooseMetric(t *testing.T) {
	t.Run("Should normalize metric aliases", func(t *testing.T) {
		assert.Equal(t, "Cosine", chooseMetric(""))
		assert.Equal(t, "Cosine", chooseMetric("cosine"))
		assert.Equal(t, "Euclid", chooseMetric("l2"))
		assert.Equal(t, "Dot", chooseMetric("DotProduct"))
	})
}
