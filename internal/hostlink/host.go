package hostlink

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Transport carries one request to the host and returns the result of a
// successful reply. Failed replies are returned as *RemoteError.
type Transport interface {
	Call(ctx context.Context, method string, args any) (json.RawMessage, error)
	Close() error
}

// Host is a remote host.Host. Nodes it returns are snapshots refreshed by
// the operations made through them.
type Host struct {
	ctx       context.Context
	transport Transport
	timeout   time.Duration
}

var _ host.Host = (*Host)(nil)

// New wraps transport. ctx carries the logger and bounds every call made
// through the host and its nodes.
func New(ctx context.Context, transport Transport, timeout time.Duration) *Host {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Host{ctx: ctx, transport: transport, timeout: timeout}
}

// Close closes the transport.
func (h *Host) Close() error {
	return h.transport.Close()
}

func (h *Host) call(method string, args, result any) error {
	ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
	defer cancel()

	ctxlog.FromContext(ctx).Debug("Calling host.", "method", method)
	raw, err := h.transport.Call(ctx, method, args)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}

// Lookup implements host.Host.
func (h *Host) Lookup(path string) (host.Node, error) {
	return h.describe(path)
}

func (h *Host) describe(path string) (*Node, error) {
	var d Description
	if err := h.call(MethodDescribe, pathArgs{Path: path}, &d); err != nil {
		return nil, err
	}
	return &Node{host: h, desc: d}, nil
}

// Node is a snapshot of a remote node.
type Node struct {
	host *Host
	desc Description
}

var _ host.Node = (*Node)(nil)

func (n *Node) Name() string              { return n.desc.Name }
func (n *Node) Path() string              { return n.desc.Path }
func (n *Node) ClassName() string         { return n.desc.ClassName }
func (n *Node) Position() record.Position { return n.desc.Position }

func (n *Node) Parameters() map[string]any {
	return maps.Clone(n.desc.Parameters)
}

func (n *Node) Inputs() []host.Slot  { return slots(n.desc.Inputs) }
func (n *Node) Outputs() []host.Slot { return slots(n.desc.Outputs) }

func slots(in []*SlotDescription) []host.Slot {
	out := make([]host.Slot, len(in))
	for i, d := range in {
		out[i] = d.slot()
	}
	return out
}

// Children fetches a fresh description of every child.
func (n *Node) Children() ([]host.Node, error) {
	out := make([]host.Node, 0, len(n.desc.Children))
	for _, p := range n.desc.Children {
		c, err := n.host.describe(p)
		if err != nil {
			return nil, fmt.Errorf("failed to describe child %s: %w", p, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (n *Node) Create(className, name string) (host.Node, error) {
	var d Description
	if err := n.host.call(MethodCreate, createArgs{Parent: n.desc.Path, ClassName: className, Name: name}, &d); err != nil {
		return nil, err
	}
	n.desc.Children = append(n.desc.Children, d.Path)
	return &Node{host: n.host, desc: d}, nil
}

func (n *Node) Destroy() error {
	return n.host.call(MethodDestroy, pathArgs{Path: n.desc.Path}, nil)
}

func (n *Node) SetPosition(pos record.Position) error {
	if err := n.host.call(MethodSetPosition, positionArgs{Path: n.desc.Path, Position: pos}, nil); err != nil {
		return err
	}
	n.desc.Position = pos
	return nil
}

func (n *Node) SetParameter(name string, value any) (bool, error) {
	var res parameterResult
	if err := n.host.call(MethodSetParameter, parameterArgs{Path: n.desc.Path, Name: name, Value: value}, &res); err != nil {
		return false, err
	}
	if res.Known {
		if n.desc.Parameters == nil {
			n.desc.Parameters = map[string]any{}
		}
		n.desc.Parameters[name] = value
	}
	return res.Known, nil
}

func (n *Node) Connect(kind host.PortKind, index int, target host.Node) error {
	err := n.host.call(MethodConnect, connectArgs{Path: n.desc.Path, Kind: kind, Index: index, Target: target.Path()}, nil)
	if err != nil {
		return err
	}
	side := &n.desc.Inputs
	if kind == host.Output {
		side = &n.desc.Outputs
	}
	for len(*side) <= index {
		*side = append(*side, nil)
	}
	(*side)[index] = &SlotDescription{Path: target.Path()}
	return nil
}
