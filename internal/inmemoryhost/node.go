package inmemoryhost

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/nodeid"
	"github.com/vk/compstash/internal/record"
)

// slot is a connector's content: a node or a raw value.
type slot struct {
	node  *Node
	value any
}

// Node is one node of an in-memory host.
type Node struct {
	host      *Host
	parent    *Node
	name      string
	className string
	pos       record.Position
	params    map[string]any
	inputs    []slot
	outputs   []slot
	children  []*Node
	destroyed bool
}

var _ host.Node = (*Node)(nil)

func (n *Node) Name() string      { return n.name }
func (n *Node) ClassName() string { return n.className }

func (n *Node) Path() string {
	if n.parent == nil {
		return nodeid.Separator
	}
	return nodeid.Join(n.parent.Path(), n.name)
}

func (n *Node) Position() record.Position { return n.pos }

func (n *Node) Parameters() map[string]any {
	return maps.Clone(n.params)
}

func (n *Node) Inputs() []host.Slot  { return toSlots(n.inputs) }
func (n *Node) Outputs() []host.Slot { return toSlots(n.outputs) }

func toSlots(in []slot) []host.Slot {
	out := make([]host.Slot, len(in))
	for i, s := range in {
		switch {
		case s.node != nil && !s.node.destroyed:
			out[i] = host.NodeSlot(s.node.Path())
		case s.node == nil:
			out[i] = host.Slot{Value: s.value}
		}
	}
	return out
}

func (n *Node) Children() ([]host.Node, error) {
	out := make([]host.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Create implements host.Node. The class must have been declared on the host
// and the name must be free among the node's children.
func (n *Node) Create(className, name string) (host.Node, error) {
	return n.CreateNode(className, name)
}

// CreateNode is Create returning the concrete type.
func (n *Node) CreateNode(className, name string) (*Node, error) {
	if n.destroyed {
		return nil, fmt.Errorf("cannot create %q under destroyed node %s", name, n.Path())
	}
	defaults, ok := n.host.classes[className]
	if !ok {
		return nil, fmt.Errorf("host does not know class %q", className)
	}
	if !nodeid.ValidName(name) {
		return nil, fmt.Errorf("invalid node name %q", name)
	}
	if n.child(name) != nil {
		return nil, fmt.Errorf("node %s already exists", nodeid.Join(n.Path(), name))
	}

	c := &Node{
		host:      n.host,
		parent:    n,
		name:      name,
		className: className,
		params:    maps.Clone(defaults),
	}
	if c.params == nil {
		c.params = map[string]any{}
	}
	n.children = append(n.children, c)
	return c, nil
}

// Destroy implements host.Node.
func (n *Node) Destroy() error {
	if n.parent == nil {
		return fmt.Errorf("cannot destroy the root node")
	}
	if n.destroyed {
		return nil
	}
	n.parent.children = slices.DeleteFunc(n.parent.children, func(c *Node) bool { return c == n })
	n.markDestroyed()
	return nil
}

func (n *Node) markDestroyed() {
	n.destroyed = true
	for _, c := range n.children {
		c.markDestroyed()
	}
}

func (n *Node) SetPosition(pos record.Position) error {
	n.pos = pos
	return nil
}

// SetParameter implements host.Node.
func (n *Node) SetParameter(name string, value any) (bool, error) {
	if _, ok := n.params[name]; !ok {
		return false, nil
	}
	n.params[name] = value
	return true, nil
}

// AddParameter gives the node a parameter its class does not declare. It
// exists to model host-side state in tests.
func (n *Node) AddParameter(name string, value any) {
	n.params[name] = value
}

// Connect implements host.Node.
func (n *Node) Connect(kind host.PortKind, index int, target host.Node) error {
	t, ok := target.(*Node)
	if !ok || t.host != n.host {
		return fmt.Errorf("cannot connect %s to a node from another host", n.Path())
	}
	if t.destroyed {
		return fmt.Errorf("cannot connect %s to destroyed node", n.Path())
	}
	return n.setSlot(kind, index, slot{node: t})
}

// SetValue puts a raw value into a connector slot.
func (n *Node) SetValue(kind host.PortKind, index int, value any) error {
	return n.setSlot(kind, index, slot{value: value})
}

func (n *Node) setSlot(kind host.PortKind, index int, s slot) error {
	if index < 0 {
		return fmt.Errorf("negative connector index %d", index)
	}
	var slots *[]slot
	switch kind {
	case host.Input:
		slots = &n.inputs
	case host.Output:
		slots = &n.outputs
	default:
		return fmt.Errorf("unknown port kind %q", kind)
	}
	for len(*slots) <= index {
		*slots = append(*slots, slot{})
	}
	(*slots)[index] = s
	return nil
}
