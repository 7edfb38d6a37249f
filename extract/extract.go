// Package extract pulls plain text out of uploaded document files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrEmptyContent is returned when a file yields no text. Empty content must
// be rejected before it reaches the index.
var ErrEmptyContent = fmt.Errorf("no text content could be extracted")

// Text extracts the text content of the file at path, dispatching on the
// file extension.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF(path)
	case ".docx", ".doc":
		return DOCX(path)
	case ".txt", ".md":
		return Plain(path)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// Plain reads a text file, assuming UTF-8 and falling back to Latin-1 for
// legacy exports.
func Plain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = latin1ToString(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

func latin1ToString(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// Title derives a document title from a file name: extension stripped,
// separators replaced with spaces.
func Title(fileName string) string {
	name := filepath.Base(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
