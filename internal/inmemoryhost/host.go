package inmemoryhost

import (
	"fmt"
	"maps"

	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/nodeid"
)

// RootClass is the class name of the host root node.
const RootClass = "root"

// Host is an in-memory node graph rooted at "/".
type Host struct {
	root    *Node
	classes map[string]map[string]any
}

var _ host.Host = (*Host)(nil)

// New creates an empty host containing only the root node.
func New() *Host {
	h := &Host{classes: make(map[string]map[string]any)}
	h.root = &Node{host: h, className: RootClass, params: map[string]any{}}
	return h
}

// DefineClass declares a creatable class and its parameters with default
// values. Redefining a class replaces its defaults.
func (h *Host) DefineClass(className string, defaults map[string]any) {
	h.classes[className] = maps.Clone(defaults)
}

// Root returns the root node.
func (h *Host) Root() *Node {
	return h.root
}

// Lookup implements host.Host.
func (h *Host) Lookup(path string) (host.Node, error) {
	n, err := h.Node(path)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Node returns the concrete node at path.
func (h *Host) Node(path string) (*Node, error) {
	addr, err := nodeid.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", host.ErrNodeNotFound, path, err)
	}

	cur := h.root
	for _, seg := range addr.Segments {
		next := cur.child(seg)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", host.ErrNodeNotFound, path)
		}
		cur = next
	}
	return cur, nil
}

// MustNode is like Node but panics when the path does not exist.
func (h *Host) MustNode(path string) *Node {
	n, err := h.Node(path)
	if err != nil {
		panic(err)
	}
	return n
}
