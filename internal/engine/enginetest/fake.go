// Package enginetest provides an in-process Converter for tests.
package enginetest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Happy-Ferret/ruby2js/internal/ast"
	"github.com/Happy-Ferret/ruby2js/internal/engine"
	"github.com/Happy-Ferret/ruby2js/internal/filter"
)

// Call records one Convert invocation.
type Call struct {
	Source  string
	Options engine.Options
	Filters []string
}

// Fake parses each whitespace separated word of the source into a located
// "send" node. Convert returns the same tree without locations, plus one
// synthesized "filter" node per active filter. Sources containing the word
// "raise" fail.
type Fake struct {
	mu    sync.Mutex
	calls []Call
}

// Calls returns the recorded Convert calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Parse implements engine.Converter.
func (f *Fake) Parse(src string) (*ast.Node, error) {
	words := strings.Fields(src)
	root := ast.Inner("begin").At(1, 0)
	for i, w := range words {
		if w == "raise" {
			return nil, fmt.Errorf("%w: unexpected raise at word %d", engine.ErrConversion, i)
		}
		root.Children = append(root.Children, ast.Inner("send", ast.Leaf(nil), ast.Leaf(w)).At(1, i))
	}
	return root, nil
}

// Convert implements engine.Converter.
func (f *Fake) Convert(src string, opts engine.Options, filters []filter.Descriptor) (*engine.Result, error) {
	names := make([]string, len(filters))
	for i, d := range filters {
		names[i] = d.Name
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Source: src, Options: opts, Filters: names})
	f.mu.Unlock()

	tree, err := f.Parse(src)
	if err != nil {
		return nil, err
	}
	stripLocations(tree)
	for _, n := range names {
		tree.Children = append(tree.Children, ast.Inner("filter", ast.Leaf(n)))
	}

	var b strings.Builder
	if len(names) > 0 {
		fmt.Fprintf(&b, "// filters: %s\n", strings.Join(names, ", "))
	}
	if opts.ESLevel != engine.ESUnset {
		fmt.Fprintf(&b, "// es%d\n", opts.ESLevel)
	}
	for i, w := range strings.Fields(src) {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s()", w)
	}
	return &engine.Result{Text: b.String(), Tree: tree}, nil
}

func stripLocations(n *ast.Node) {
	n.Loc = nil
	for _, c := range n.Children {
		stripLocations(c)
	}
}
