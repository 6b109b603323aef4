// Package host declares the capabilities the core needs from a host
// application's node graph. Capture and reconstruction only ever talk to a
// host through these interfaces; concrete hosts live in inmemoryhost and
// hostlink.
package host

import (
	"errors"

	"github.com/vk/compstash/internal/record"
)

// ErrNodeNotFound is returned by Lookup when no node exists at a path.
var ErrNodeNotFound = errors.New("node not found")

// PortKind selects the input or output side of a node.
type PortKind string

const (
	Input  PortKind = "inputs"
	Output PortKind = "outputs"
)

// Slot is the current content of one connector. A slot holds either the
// path of a connected node, a raw value, or nothing.
type Slot struct {
	Path  string
	Value any
}

// NodeSlot returns a slot connected to the node at path.
func NodeSlot(path string) Slot { return Slot{Path: path} }

// IsNode reports whether the slot is connected to a node.
func (s Slot) IsNode() bool { return s.Path != "" }

// IsEmpty reports whether nothing is connected.
func (s Slot) IsEmpty() bool { return s.Path == "" && s.Value == nil }

// Node is a handle to one live host node.
type Node interface {
	Name() string
	Path() string
	ClassName() string
	Position() record.Position
	// Parameters returns the node's current parameter values by name.
	Parameters() map[string]any
	Inputs() []Slot
	Outputs() []Slot
	Children() ([]Node, error)

	// Create makes a new child node of the given class.
	Create(className, name string) (Node, error)
	// Destroy removes the node and everything beneath it.
	Destroy() error

	SetPosition(pos record.Position) error
	// SetParameter assigns a parameter. It reports false, without error,
	// when the node has no parameter of that name.
	SetParameter(name string, value any) (bool, error)
	// Connect wires connector index of the given kind to target.
	Connect(kind PortKind, index int, target Node) error
}

// Host resolves node paths to live nodes.
type Host interface {
	// Lookup returns the node at path, or an error wrapping ErrNodeNotFound.
	Lookup(path string) (Node, error)
}
