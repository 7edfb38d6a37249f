package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDF extracts text from a PDF file. pdfcpu decodes the page content
// streams; the text-showing operators (Tj/TJ/' and ") carry literal strings
// in parentheses, which covers the common simply-encoded documents this
// service receives. Scanned or exotically encoded PDFs yield ErrEmptyContent.
func PDF(path string) (string, error) {
	conf := api.LoadConfiguration()

	if err := api.ValidateFile(path, conf); err != nil {
		return "", fmt.Errorf("invalid pdf %s: %w", path, err)
	}

	outDir, err := os.MkdirTemp("", "docchat-pdf-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract content %s: %w", path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			return "", err
		}
		sb.WriteString(contentStreamText(string(data)))
		sb.WriteByte('\n')
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

// contentStreamText pulls the parenthesized string literals out of a decoded
// content stream. In practice those are the arguments of the text-showing
// operators; Tf font names and the like are name objects, not literals.
func contentStreamText(stream string) string {
	var sb strings.Builder

	i := 0
	for i < len(stream) {
		if stream[i] != '(' {
			i++
			continue
		}
		literal, next := parseLiteral(stream, i)
		i = next
		if literal != "" {
			sb.WriteString(literal)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// parseLiteral reads a parenthesized PDF string starting at the opening
// paren, handling escapes and nested balanced parens. Returns the unescaped
// string and the offset just past the closing paren.
func parseLiteral(s string, start int) (string, int) {
	var sb strings.Builder
	depth := 0

	i := start
	for i < len(s) {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) {
				switch s[i+1] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case 'r', 'b', 'f':
					// ignored control escapes
				default:
					sb.WriteByte(s[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i + 1
			}
			sb.WriteByte(c)
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}
