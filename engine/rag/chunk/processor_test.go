package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessor(t *testing.T) {
	t.Run("Should reject non-positive size", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 0, Overlap: 0})
		require.Error(t, err)
	})

	t.Run("Should reject negative overlap", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 100, Overlap: -1})
		require.Error(t, err)
	})

	t.Run("Should reject overlap not smaller than size", func(t *testing.T) {
		_, err := NewProcessor(Settings{Size: 100, Overlap: 100})
		require.Error(t, err)
	})
}

func TestProcess(t *testing.T) {
	t.Run("Should return nil for empty input", func(t *testing.T) {
		processor, err := NewProcessor(DefaultSettings())
		require.NoError(t, err)

		assert.Nil(t, processor.Process(""))
	})

	t.Run("Should return single chunk for short text", func(t *testing.T) {
		processor, err := NewProcessor(DefaultSettings())
		require.NoError(t, err)

		chunks := processor.Process("short text")

		assert.Equal(t, []string{"short text"}, chunks)
	})

	t.Run("Should cut at sentence boundary past the window midpoint", func(t *testing.T) {
		processor, err := NewProcessor(Settings{Size: 40, Overlap: 5})
		require.NoError(t, err)
		text := "First sentence here. Second sentence follows now. Third one closes it."

		chunks := processor.Process(text)

		require.NotEmpty(t, chunks)
		// The first window is 40 runes; the marker after "here." sits before
		// the midpoint, so the cut must not land mid-word at the raw boundary
		// unless no qualifying marker exists.
		for _, chunk := range chunks {
			assert.NotEmpty(t, chunk)
			assert.LessOrEqual(t, len([]rune(chunk)), 40+2)
		}
	})

	t.Run("Should keep every chunk within size plus marker length", func(t *testing.T) {
		processor, err := NewProcessor(DefaultSettings())
		require.NoError(t, err)
		text := strings.Repeat("This is a sentence of reasonable length. ", 100)

		chunks := processor.Process(text)

		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), DefaultSize+2)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
	})

	t.Run("Should cover the full text across chunks", func(t *testing.T) {
		processor, err := NewProcessor(Settings{Size: 50, Overlap: 10})
		require.NoError(t, err)
		text := strings.Repeat("Alpha beta gamma delta. ", 30)

		chunks := processor.Process(text)

		require.NotEmpty(t, chunks)
		// Overlapping windows cover a superset of the source: the tail of the
		// last chunk must reach the tail of the trimmed text.
		last := chunks[len(chunks)-1]
		assert.True(t, strings.HasSuffix(strings.TrimSpace(text), last))
	})

	t.Run("Should produce fewer chunks as size grows", func(t *testing.T) {
		text := strings.Repeat("One two three four five six seven eight nine ten. ", 60)
		counts := make([]int, 0, 3)
		for _, size := range []int{100, 250, 600} {
			processor, err := NewProcessor(Settings{Size: size, Overlap: 20})
			require.NoError(t, err)
			counts = append(counts, len(processor.Process(text)))
		}
		assert.GreaterOrEqual(t, counts[0], counts[1])
		assert.GreaterOrEqual(t, counts[1], counts[2])
	})

	t.Run("Should terminate on text without sentence markers", func(t *testing.T) {
		processor, err := NewProcessor(Settings{Size: 20, Overlap: 5})
		require.NoError(t, err)
		text := strings.Repeat("x", 1000)

		chunks := processor.Process(text)

		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 20)
		}
	})

	t.Run("Should handle multibyte runes without splitting them", func(t *testing.T) {
		processor, err := NewProcessor(Settings{Size: 30, Overlap: 5})
		require.NoError(t, err)
		text := strings.Repeat("Über Äpfel und Öl. ", 20)

		chunks := processor.Process(text)

		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.True(t, strings.Contains(text, chunk), "chunk %q must be source text", chunk)
		}
	})
}
