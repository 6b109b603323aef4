package record

import (
	"encoding/json"
	"fmt"
)

// Port kinds.
const (
	KindNode  = "node"
	KindValue = "value"
)

// Position is a node's location in the host network editor, as [x, y].
type Position [2]float64

// Port is one input or output slot of a captured node. A nil *Port in a
// slice marks an unconnected slot.
type Port struct {
	Kind  string `json:"kind"`
	Path  string `json:"path,omitempty"`
	Value any    `json:"value,omitempty"`
}

// NodeRef returns a port referring to the node at path.
func NodeRef(path string) *Port {
	return &Port{Kind: KindNode, Path: path}
}

// ValueRef returns a port holding a raw value.
func ValueRef(v any) *Port {
	return &Port{Kind: KindValue, Value: v}
}

// IsNode reports whether the port points at another node.
func (p *Port) IsNode() bool {
	return p != nil && p.Kind == KindNode
}

// Node is one captured host node.
type Node struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	ClassName  string         `json:"class_name"`
	Position   Position       `json:"position"`
	Parameters map[string]any `json:"parameters"`
	Inputs     []*Port        `json:"inputs"`
	Outputs    []*Port        `json:"outputs"`
	Children   []*Node        `json:"children,omitempty"`
}

// Walk visits every record depth-first, parents before children, in order.
// Returning an error from fn stops the walk.
func Walk(records []*Node, fn func(n *Node, depth int) error) error {
	var walk func(nodes []*Node, depth int) error
	walk = func(nodes []*Node, depth int) error {
		for _, n := range nodes {
			if err := fn(n, depth); err != nil {
				return err
			}
			if err := walk(n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(records, 0)
}

// Count returns the number of records in the tree, children included.
func Count(records []*Node) int {
	n := 0
	_ = Walk(records, func(*Node, int) error {
		n++
		return nil
	})
	return n
}

// Index maps every path in the tree to its record.
func Index(records []*Node) map[string]*Node {
	idx := make(map[string]*Node)
	_ = Walk(records, func(n *Node, _ int) error {
		idx[n.Path] = n
		return nil
	})
	return idx
}

// Normalize converts v into its JSON-representable form by encoding and
// decoding it, so that captured values compare equal to values read back
// from a stash file.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("round-trip decode: %w", err)
	}
	return out, nil
}
