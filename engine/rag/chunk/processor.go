// Package chunk splits document text into overlapping, sentence-aware
// segments sized for embedding.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 500
	DefaultOverlap = 50
)

// sentenceMarkers are probed in order; the first marker found past the
// window midpoint wins. The backward search is bounded to the current
// window, so worst-case cost stays proportional to the chunk size.
var sentenceMarkers = []string{". ", ".\n", "! ", "? "}

// Settings configures window size and overlap, both measured in runes.
type Settings struct {
	Size    int
	Overlap int
}

// DefaultSettings returns the standard 500/50 chunking configuration.
func DefaultSettings() Settings {
	return Settings{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Processor performs windowed sentence-aware chunking.
type Processor struct {
	settings Settings
}

// NewProcessor builds a processor with validated settings.
func NewProcessor(settings Settings) (*Processor, error) {
	if settings.Size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if settings.Overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", settings.Overlap, settings.Size)
	}
	return &Processor{settings: settings}, nil
}

// Process splits text into trimmed, non-empty chunks. Each window is cut
// immediately after the last sentence marker found past the window midpoint;
// otherwise at the raw size boundary. Consecutive windows overlap by the
// configured amount of source text.
func (p *Processor) Process(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	length := len(runes)
	size := p.settings.Size
	overlap := p.settings.Overlap
	var chunks []string
	start := 0
	for start < length {
		end := start + size
		if end < length {
			end = start + p.cutOffset(string(runes[start:end]))
		}
		cut := end
		if cut > length {
			cut = length
		}
		if piece := strings.TrimSpace(string(runes[start:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		next := end - overlap
		if next <= start {
			// Invariant: start strictly advances so the walk terminates.
			next = cut
		}
		start = next
	}
	return chunks
}

// cutOffset returns the rune offset within window at which to cut: just
// after a sentence marker past the midpoint, or the full window length.
func (p *Processor) cutOffset(window string) int {
	midpoint := p.settings.Size / 2
	for _, marker := range sentenceMarkers {
		byteIdx := strings.LastIndex(window, marker)
		if byteIdx < 0 {
			continue
		}
		runeIdx := utf8.RuneCountInString(window[:byteIdx])
		if runeIdx > midpoint {
			return runeIdx + utf8.RuneCountInString(marker)
		}
	}
	return utf8.RuneCountInString(window)
}
