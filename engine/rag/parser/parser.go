// Package parser extracts plain text from uploaded documents so they can be
// chunked and embedded. Dispatch is keyed by a closed set of file formats;
// anything outside that set is rejected before any file I/O happens.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// ErrUnsupportedFormat is returned for file types the parser cannot index.
var ErrUnsupportedFormat = errors.New("parser: unsupported document format")

// ParseError wraps an extraction failure for an otherwise supported format.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: parse %s document %q: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type parseFunc func(path string) (string, error)

var parsers = map[Format]parseFunc{
	FormatPDF:  parsePDF,
	FormatDOCX: parseDOCX,
	FormatTXT:  parseTXT,
}

// ParseFormat resolves a file extension to a Format. Matching is
// case-insensitive and tolerates a leading dot.
func ParseFormat(ext string) (Format, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch Format(normalized) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	case FormatTXT:
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Parse extracts plain text from the file at path using the parser registered
// for the given format. Extraction errors are wrapped in *ParseError; the
// caller treats them as a failed-indexing outcome, not a crash.
func Parse(path string, format Format) (string, error) {
	fn, ok := parsers[format]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	text, err := fn(path)
	if err != nil {
		return "", &ParseError{Path: path, Format: format, Err: err}
	}
	return text, nil
}
