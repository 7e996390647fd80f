// Package ingestion turns uploaded text, local files and URLs into cleaned
// document text with metadata.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`[ \t\f\v]+`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
	bulletMarks  = []string{"- ", "* ", "• ", "· "}
)

// CleanText normalizes line endings and whitespace while keeping headings,
// bullets, indentation and paragraph breaks. The output is deterministic.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := reBlankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses inner whitespace. Headings lose their indentation,
// other lines keep it.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := line[:len(line)-len(trimmed)]
	indent = strings.ReplaceAll(indent, "\t", "    ")
	if mark := bulletPrefix(trimmed); mark != "" {
		return indent + mark + reSpaces.ReplaceAllString(strings.TrimLeft(trimmed[len(mark):], " \t"), " ")
	}
	return indent + reSpaces.ReplaceAllString(trimmed, " ")
}

func bulletPrefix(trimmed string) string {
	for _, mark := range bulletMarks {
		if strings.HasPrefix(trimmed, mark) {
			return mark
		}
	}
	return ""
}

// WordCount counts whitespace separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}
