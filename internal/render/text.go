package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	unlocStyle   = lipgloss.NewStyle().Background(lipgloss.Color("11")).Foreground(lipgloss.Color("0"))
)

// Text renders sections for a terminal. When styled, synthesized nodes are
// highlighted; otherwise they are suffixed with " *".
func Text(sections []Section, styled bool) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if styled {
			sb.WriteString(headingStyle.Render(s.Heading))
		} else {
			sb.WriteString(s.Heading)
		}
		sb.WriteString("\n")
		writeBlock(&sb, s.Root, styled)
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, b *Block, styled bool) {
	line := b.Label()
	for _, v := range b.Inline {
		line += " " + v
	}
	switch {
	case b.Located:
	case styled:
		line = unlocStyle.Render(line)
	default:
		line += " *"
	}
	sb.WriteString(line)
	sb.WriteString("\n")

	for _, it := range b.Items {
		if it.Block != nil {
			writeBlock(sb, it.Block, styled)
			continue
		}
		sb.WriteString(it.Leaf)
		sb.WriteString("\n")
	}
}
