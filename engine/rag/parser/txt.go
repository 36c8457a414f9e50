package parser

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// parseTXT reads a plain-text file as UTF-8. Invalid UTF-8 falls back to a
// Latin-1 decode, which maps every byte, so this parser never fails on
// encoding alone.
func parseTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
