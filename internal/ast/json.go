package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireNode is the converter's JSON form of an inner node.
type wireNode struct {
	Type     string            `json:"type"`
	Loc      *Location         `json:"loc"`
	Children []json.RawMessage `json:"children"`
}

// Decode parses a JSON tree. An object is an inner node; any other JSON
// value is a leaf.
func Decode(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode node: empty input")
	}
	if data[0] != '{' {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode leaf: %w", err)
		}
		switch v.(type) {
		case []any, map[string]any:
			return nil, fmt.Errorf("decode leaf: unsupported value %s", data)
		}
		return Leaf(v), nil
	}

	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	if w.Type == "" {
		return nil, fmt.Errorf("decode node: missing type")
	}
	n := &Node{Kind: KindInner, Type: w.Type, Loc: w.Loc}
	for i, raw := range w.Children {
		c, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s.children[%d]: %w", w.Type, i, err)
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	d, err := Decode(data)
	if err != nil {
		return err
	}
	*n = *d
	return nil
}

// MarshalJSON implements json.Marshaler using the converter's wire form.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Kind == KindLeaf {
		return json.Marshal(n.Value)
	}
	w := struct {
		Type     string    `json:"type"`
		Loc      *Location `json:"loc"`
		Children []*Node   `json:"children"`
	}{n.Type, n.Loc, n.Children}
	if w.Children == nil {
		w.Children = []*Node{}
	}
	return json.Marshal(w)
}
