package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Panel JSON coloring. Payloads shown in the panels are engine
// responses and stored snapshots, indented with json.Indent first, so
// every line carries at most one key and one value. Coloring works on
// that line shape instead of tokenizing the whole document.

var (
	jsonKeyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	jsonStringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	jsonNumberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	jsonLiteralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	jsonPunctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// FormatJSON pretty-prints a JSON payload and colors it line by line.
// Content that does not indent as JSON comes back as plain lines, so
// panels can hand over response bodies without sniffing them first.
func FormatJSON(content string) []string {
	var indented bytes.Buffer
	if err := json.Indent(&indented, []byte(content), "", "  "); err != nil {
		return strings.Split(content, "\n")
	}

	lines := strings.Split(indented.String(), "\n")
	for i, line := range lines {
		lines[i] = paintJSONLine(line)
	}
	return lines
}

// paintJSONLine colors one indented line: an optional quoted key, a
// single value, and trailing punctuation.
func paintJSONLine(line string) string {
	body := strings.TrimLeft(line, " ")
	if body == "" {
		return line
	}
	indent := line[:len(line)-len(body)]

	var b strings.Builder
	b.WriteString(indent)

	if key, rest, ok := splitJSONKey(body); ok {
		b.WriteString(jsonKeyStyle.Render(key))
		b.WriteString(jsonPunctStyle.Render(":"))
		body = strings.TrimLeft(rest, " ")
		if body == "" {
			return b.String()
		}
		b.WriteString(" ")
	}

	value, trailer := splitJSONTrailer(body)
	if value != "" {
		b.WriteString(paintJSONValue(value))
	}
	if trailer != "" {
		b.WriteString(jsonPunctStyle.Render(trailer))
	}
	return b.String()
}

// splitJSONKey peels a leading `"key":` off the line. A quoted string
// not followed by a colon is a value, not a key.
func splitJSONKey(s string) (key, rest string, ok bool) {
	if !strings.HasPrefix(s, `"`) {
		return "", "", false
	}
	end := closingQuote(s)
	if end < 0 {
		return "", "", false
	}
	after := strings.TrimLeft(s[end:], " ")
	if !strings.HasPrefix(after, ":") {
		return "", "", false
	}
	return s[:end], after[1:], true
}

// splitJSONTrailer separates a value from the closing punctuation a
// json.Indent line can end with: a comma and any brackets of empty
// composites.
func splitJSONTrailer(s string) (value, trailer string) {
	i := len(s)
	for i > 0 {
		switch s[i-1] {
		case ',', '}', ']':
			i--
		default:
			return s[:i], s[i:]
		}
	}
	return "", s
}

func paintJSONValue(v string) string {
	switch {
	case strings.HasPrefix(v, `"`):
		return jsonStringStyle.Render(v)
	case v == "true" || v == "false" || v == "null":
		return jsonLiteralStyle.Render(v)
	case v == "{" || v == "[":
		return jsonPunctStyle.Render(v)
	default:
		return jsonNumberStyle.Render(v)
	}
}

// closingQuote returns the index just past the closing quote of a
// string literal starting at position 0, honoring backslash escapes.
// Returns -1 when the literal never closes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}
