package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errMissingDocumentXML = errors.New("word/document.xml not found in archive")

// documentXML mirrors the subset of word/document.xml needed for text
// extraction: paragraphs containing runs containing text elements.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// parseDOCX extracts paragraph text from a DOCX archive, skipping blank
// paragraphs and joining the rest with blank-line separators.
func parseDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()
	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return extractParagraphs(content)
	}
	return "", errMissingDocumentXML
}

func extractParagraphs(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs {
			for _, text := range run.Text {
				sb.WriteString(text.Content)
			}
		}
		if trimmed := strings.TrimSpace(sb.String()); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
