// Package citation formats bibliographic citations for uploaded documents.
package citation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Style is a supported citation format.
type Style string

const (
	APA     Style = "apa"
	MLA     Style = "mla"
	Chicago Style = "chicago"
	Harvard Style = "harvard"
)

// Styles lists every supported style.
var Styles = []Style{APA, MLA, Chicago, Harvard}

const unknownAuthor = "Unknown Author"

var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)authors?[ :]+([A-Za-z .,]+)`),
	regexp.MustCompile(`(?i)by[ :]+([A-Za-z .,]+)`),
	regexp.MustCompile(`(?i)written by[ :]+([A-Za-z .,]+)`),
	regexp.MustCompile(`(?i)submitted by[ :]+([A-Za-z .,]+)`),
	regexp.MustCompile(`(?i)prepared by[ :]+([A-Za-z .,]+)`),
}

// ParseStyle normalizes a style string, defaulting to APA when unrecognized.
func ParseStyle(s string) Style {
	switch Style(strings.ToLower(s)) {
	case MLA:
		return MLA
	case Chicago:
		return Chicago
	case Harvard:
		return Harvard
	default:
		return APA
	}
}

// Generate formats a citation for a document in the requested style.
// fileExt is the original file extension including the dot.
func Generate(style Style, title, content string, uploadedAt time.Time, fileExt string) string {
	author := ExtractAuthor(content)

	switch style {
	case MLA:
		return mla(title, author, uploadedAt, fileExt)
	case Chicago:
		return chicago(title, author, uploadedAt, fileExt)
	case Harvard:
		return harvard(title, author, uploadedAt, fileExt)
	default:
		return apa(title, author, uploadedAt, fileExt)
	}
}

// ExtractAuthor guesses the author from document content. A simple pattern
// scan, not NLP: "by ...", "author: ..." lines, then a name-looking line
// near the top of the document.
func ExtractAuthor(content string) string {
	if content == "" {
		return unknownAuthor
	}

	for _, pattern := range authorPatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		author := strings.TrimSpace(m[1])
		if len(author) > 2 && len(author) < 100 {
			return author
		}
	}

	lines := strings.Split(content, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 2 && len(line) < 50 && looksLikeName(line) {
			return line
		}
	}

	return unknownAuthor
}

func looksLikeName(line string) bool {
	for _, r := range line {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == ' ' {
			continue
		}
		if strings.ContainsRune(`.,'"-`, r) {
			continue
		}
		return false
	}
	return true
}

func apa(title, author string, date time.Time, fileExt string) string {
	formatted := author
	if parts := strings.Fields(author); len(parts) > 1 && author != unknownAuthor {
		var initials strings.Builder
		for _, name := range parts[:len(parts)-1] {
			initials.WriteByte(name[0])
			initials.WriteByte('.')
		}
		formatted = fmt.Sprintf("%s, %s", parts[len(parts)-1], initials.String())
	}

	citation := fmt.Sprintf("%s (%s). %s", formatted, date.Format("2006"), title)
	if tag := fileTag(fileExt); tag != "" {
		citation += fmt.Sprintf(" [%s file]", tag)
	}
	return citation
}

func mla(title, author string, date time.Time, fileExt string) string {
	formatted := author
	if parts := strings.Fields(author); len(parts) > 1 && author != unknownAuthor {
		formatted = fmt.Sprintf("%s, %s", parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " "))
	}

	citation := fmt.Sprintf("%s. %q", formatted, title)
	if tag := fileTag(fileExt); tag != "" {
		citation += ", " + tag
	}
	citation += fmt.Sprintf(", %s. %s", date.Format("02 Jan"), date.Format("2006"))
	return citation
}

func chicago(title, author string, date time.Time, fileExt string) string {
	citation := fmt.Sprintf("%s. %q", author, title+".")
	if tag := fileTag(fileExt); tag != "" {
		citation += fmt.Sprintf(" %s file", tag)
	}
	citation += fmt.Sprintf(", %s.", date.Format("January 2, 2006"))
	return citation
}

func harvard(title, author string, date time.Time, fileExt string) string {
	formatted := author
	if parts := strings.Fields(author); len(parts) > 1 && author != unknownAuthor {
		var initials strings.Builder
		for _, name := range parts[:len(parts)-1] {
			initials.WriteByte(name[0])
			initials.WriteByte('.')
		}
		formatted = fmt.Sprintf("%s, %s", parts[len(parts)-1], initials.String())
	}

	citation := fmt.Sprintf("%s %s, '%s'", formatted, date.Format("2006"), title)
	if tag := fileTag(fileExt); tag != "" {
		citation += fmt.Sprintf(", %s file", tag)
	}
	return citation
}

func fileTag(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".doc":
		return strings.ToUpper(strings.TrimPrefix(ext, "."))
	default:
		return ""
	}
}
