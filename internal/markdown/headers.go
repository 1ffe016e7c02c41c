// Package markdown maintains document structure derived from the model's
// streamed output: heading extraction, header-stack breadcrumbs, and the
// context block handed to the next batch.
package markdown

import "strings"

// Header is one Markdown heading. Line preserves the exact source line,
// hashes included, because the breadcrumb renderer reproduces it verbatim.
type Header struct {
	Level int
	Line  string
}

// ExtractHeaders scans text line by line and returns every Markdown
// heading in order. A line counts as a heading when, after stripping
// leading whitespace, it starts with 1-6 '#' characters followed by
// non-empty text.
func ExtractHeaders(text string) []Header {
	var headers []Header
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(stripped, "#") {
			continue
		}
		level := len(stripped) - len(strings.TrimLeft(stripped, "#"))
		if level < 1 || level > 6 {
			continue
		}
		if strings.TrimSpace(strings.TrimLeft(stripped, "#")) == "" {
			// Bare hashes with no heading text.
			continue
		}
		headers = append(headers, Header{Level: level, Line: line})
	}
	return headers
}

// CleanOutput removes code-fence markers the model sometimes wraps its
// answer in: a first line that is exactly ```markdown or ``` and a last
// line that is exactly ```.
func CleanOutput(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		switch strings.TrimSpace(lines[0]) {
		case "```markdown", "```":
			lines = lines[1:]
		}
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
