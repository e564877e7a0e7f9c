// Package render turns syntax trees into nested blocks for display, marking
// which nodes came from user source and which were synthesized by a filter.
package render

import "github.com/Happy-Ferret/ruby2js/internal/ast"

const indentStep = "  "

// Section headings.
const (
	HeadingOriginal = "AST"
	HeadingFiltered = "filtered AST"
)

// Block is the display form of one inner node.
type Block struct {
	Type    string
	Indent  string
	Located bool
	Inline  []string // leaf values, when no child is an inner node
	Items   []Item   // every child, when at least one child is an inner node
}

// Item is a child line of a Block: a nested block or an annotated leaf.
type Item struct {
	Block *Block
	Leaf  string
}

// Label is the block's first line.
func (b *Block) Label() string {
	return b.Indent + b.Type
}

// Class is the CSS class marking source provenance.
func (b *Block) Class() string {
	if b.Located {
		return "loc"
	}
	return "unloc"
}

// Section is a headed tree.
type Section struct {
	Heading string
	Root    *Block
}

// Walk builds the block tree for n.
func Walk(n *ast.Node) *Block {
	return walk(n, "")
}

func walk(n *ast.Node, indent string) *Block {
	b := &Block{Type: n.Type, Indent: indent, Located: n.Located()}
	if n.HasInnerChild() {
		for _, c := range n.Children {
			if c.Kind == ast.KindInner {
				b.Items = append(b.Items, Item{Block: walk(c, indentStep+indent)})
			} else {
				b.Items = append(b.Items, Item{Leaf: indent + indentStep + c.Inspect()})
			}
		}
		return b
	}
	for _, c := range n.Children {
		b.Inline = append(b.Inline, c.Inspect())
	}
	return b
}

// Render returns the original tree under "AST" and, when equal reports a
// difference, the filtered tree under "filtered AST".
func Render(original, filtered *ast.Node, equal func(a, b *ast.Node) bool) []Section {
	sections := []Section{{Heading: HeadingOriginal, Root: Walk(original)}}
	if filtered != nil && !equal(original, filtered) {
		sections = append(sections, Section{Heading: HeadingFiltered, Root: Walk(filtered)})
	}
	return sections
}
