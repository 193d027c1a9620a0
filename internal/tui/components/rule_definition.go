package components

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"ruliad/internal/core"
	"ruliad/internal/tui"
)

// RenderRuleDefinition renders a rule's expression tree as indented
// text: operator badges for and/or groups, one line per comparison
// leaf, and a trailing term count.
func RenderRuleDefinition(def *core.RuleDefinition, width int) string {
	if def == nil {
		return dimStyle.Render("no rule definition")
	}

	var b strings.Builder
	if def.Name != "" {
		b.WriteString(ruleNameStyle.Render(def.Name))
		b.WriteString("\n")
	}

	b.WriteString(operatorBadge(def.Op))
	b.WriteString("\n")
	for i := range def.Terms {
		renderNode(&b, &def.Terms[i], 1, width)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d terms", def.CountTerms())))
	return b.String()
}

func renderNode(b *strings.Builder, node *core.RuleNode, depth, width int) {
	indent := strings.Repeat("  ", depth)

	if node.IsOperator() {
		b.WriteString(indent)
		b.WriteString(operatorBadge(node.Op))
		b.WriteString("\n")
		for i := range node.Terms {
			renderNode(b, &node.Terms[i], depth+1, width)
		}
		return
	}

	budget := 0
	if width > 0 {
		budget = width - len(indent)
		if budget < 1 {
			budget = 1
		}
	}
	b.WriteString(indent)
	b.WriteString(leafLine(node, budget))
	b.WriteString("\n")
}

// leafLine renders one comparison. Trimming happens on the unstyled
// text so a cut never lands inside an escape sequence or splits a
// multi-byte rune; the value absorbs whatever the field leaves over.
func leafLine(node *core.RuleNode, width int) string {
	field := "?"
	if node.Field != nil {
		if node.Field.Namespace != "" {
			field = node.Field.Namespace + "." + node.Field.Name
		} else {
			field = node.Field.Name
		}
	}
	glyph := compGlyph(node.Comp)
	value := ""
	if len(node.Value) > 0 {
		value = strings.TrimSpace(string(node.Value))
	}

	if width > 0 {
		field = tui.Truncate(field, width)
		if value != "" {
			rest := width - utf8.RuneCountInString(field) - utf8.RuneCountInString(glyph) - 2
			value = tui.Truncate(value, rest)
		}
	}

	line := fieldStyle.Render(field) + " " + glyph
	if value != "" {
		line += " " + valueStyle.Render(value)
	}
	return line
}

// compGlyph maps a comparator name to a display glyph by substring,
// so variants like "not_equal" and "greater_or_equal" still resolve.
func compGlyph(comp string) string {
	lower := strings.ToLower(comp)
	switch {
	case strings.Contains(lower, "equal"):
		return "="
	case strings.Contains(lower, "greater"):
		return ">"
	case strings.Contains(lower, "less"):
		return "<"
	default:
		return "?"
	}
}

func operatorBadge(op string) string {
	switch strings.ToLower(op) {
	case "and":
		return andBadgeStyle.Render(" AND ")
	case "or":
		return orBadgeStyle.Render(" OR ")
	default:
		return headerStyle.Render(strings.ToUpper(op))
	}
}

var (
	ruleNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	andBadgeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("42")).Bold(true)
	orBadgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("214")).Bold(true)
	fieldStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)
