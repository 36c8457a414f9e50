package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Run("Should accept supported extensions case-insensitively", func(t *testing.T) {
		testCases := []struct {
			ext      string
			expected Format
		}{
			{"pdf", FormatPDF},
			{"PDF", FormatPDF},
			{".pdf", FormatPDF},
			{"docx", FormatDOCX},
			{"DocX", FormatDOCX},
			{"txt", FormatTXT},
			{".TXT", FormatTXT},
		}
		for _, tc := range testCases {
			format, err := ParseFormat(tc.ext)
			require.NoError(t, err, "extension %q", tc.ext)
			assert.Equal(t, tc.expected, format)
		}
	})

	t.Run("Should reject unsupported extensions before any I/O", func(t *testing.T) {
		for _, ext := range []string{"xlsx", "exe", "", "md"} {
			_, err := ParseFormat(ext)
			assert.ErrorIs(t, err, ErrUnsupportedFormat, "extension %q", ext)
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("Should fail with ErrUnsupportedFormat for unknown format value", func(t *testing.T) {
		_, err := Parse("somefile.xlsx", Format("xlsx"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("Should read UTF-8 text files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "note.txt")
		require.NoError(t, os.WriteFile(path, []byte("héllo wörld"), 0o600))

		text, err := Parse(path, FormatTXT)

		require.NoError(t, err)
		assert.Equal(t, "héllo wörld", text)
	})

	t.Run("Should fall back to Latin-1 for invalid UTF-8 text", func(t *testing.T) {
		// "café" encoded as Latin-1: 0xE9 is not valid UTF-8 on its own.
		path := filepath.Join(t.TempDir(), "legacy.txt")
		require.NoError(t, os.WriteFile(path, []byte{'c', 'a', 'f', 0xE9}, 0o600))

		text, err := Parse(path, FormatTXT)

		require.NoError(t, err)
		assert.Equal(t, "café", text)
	})

	t.Run("Should wrap missing file errors in ParseError", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "absent.txt")

		_, err := Parse(missing, FormatTXT)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, missing, parseErr.Path)
		assert.Equal(t, FormatTXT, parseErr.Format)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Should extract non-empty paragraphs from DOCX", func(t *testing.T) {
		path := writeTestDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`)

		text, err := Parse(path, FormatDOCX)

		require.NoError(t, err)
		assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
	})

	t.Run("Should fail on DOCX archive without document.xml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.docx")
		file, err := os.Create(path)
		require.NoError(t, err)
		writer := zip.NewWriter(file)
		entry, err := writer.Create("word/styles.xml")
		require.NoError(t, err)
		_, err = entry.Write([]byte("<styles/>"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		require.NoError(t, file.Close())

		_, err = Parse(path, FormatDOCX)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
	})

	t.Run("Should fail on invalid PDF bytes with ParseError", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

		_, err := Parse(path, FormatPDF)

		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, FormatPDF, parseErr.Format)
	})
}

func writeTestDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	file, err := os.Create(path)
	require.NoError(t, err)
	writer := zip.NewWriter(file)
	contentTypes, err := writer.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)
	doc, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
	return path
}
