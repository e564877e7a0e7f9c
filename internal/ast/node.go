// Package ast models the syntax trees returned by the converter.
package ast

import (
	"fmt"
	"strconv"
)

// Kind tags a Node as an inner syntax node or a leaf value.
type Kind int

const (
	KindInner Kind = iota
	KindLeaf
)

// Location marks a node that was parsed from user source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Node is either an inner node (Type, Children, Loc) or a leaf (Value).
// Leaf values are string, float64, bool or nil.
type Node struct {
	Kind     Kind
	Type     string
	Children []*Node
	Loc      *Location
	Value    any
}

// Inner builds an inner node without a location.
func Inner(typ string, children ...*Node) *Node {
	return &Node{Kind: KindInner, Type: typ, Children: children}
}

// Leaf builds a leaf node.
func Leaf(v any) *Node {
	return &Node{Kind: KindLeaf, Value: v}
}

// At sets the node's location and returns it.
func (n *Node) At(line, column int) *Node {
	n.Loc = &Location{Line: line, Column: column}
	return n
}

// Located reports whether the node carries a source location.
func (n *Node) Located() bool {
	return n.Loc != nil
}

// HasInnerChild reports whether at least one child is itself a syntax node.
func (n *Node) HasInnerChild() bool {
	for _, c := range n.Children {
		if c.Kind == KindInner {
			return true
		}
	}
	return false
}

// Inspect formats a leaf value for display.
func (n *Node) Inspect() string {
	switch v := n.Value.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Equal reports whether a and b have the same shape and leaf values.
// Locations are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindLeaf {
		return a.Value == b.Value
	}
	if a.Type != b.Type || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
