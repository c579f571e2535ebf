// Package ingestion turns pasted or uploaded resume content into clean plain text.
package ingestion

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	bulletMarkerRe = regexp.MustCompile(`^\s*(?:[-*•·▪◦–]|\d{1,2}[.)])\s+`)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	// Bullets keep their indentation so nested lists survive
	indent := len(line) - len(trimmed)
	content := whitespaceRun.ReplaceAllString(trimmed, " ")
	if IsBulletLine(trimmed) {
		content = "- " + StripBulletMarker(content)
	}
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// IsBulletLine checks if a line is a bullet list item
func IsBulletLine(line string) bool {
	return bulletMarkerRe.MatchString(line)
}

// StripBulletMarker removes a leading bullet or list number and surrounding space
func StripBulletMarker(line string) string {
	return strings.TrimSpace(bulletMarkerRe.ReplaceAllString(line, ""))
}

// Normalize cleans resume input, stripping markup first when the input looks like HTML
func Normalize(content string) (string, error) {
	if LooksLikeHTML(content) {
		stripped, err := StripHTML(content)
		if err != nil {
			return "", err
		}
		content = stripped
	}
	return CleanText(content), nil
}

// ReadResume reads resume text from a file path, or from r when path is "-"
func ReadResume(path string, r io.Reader) (string, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(r)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read resume: %w", err)
	}
	return Normalize(string(content))
}

// Truncate shortens s to at most limit runes, cutting at a word boundary when one is close
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-")
}
