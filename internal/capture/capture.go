// Package capture turns live host nodes into portable record trees.
package capture

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
	"github.com/vk/compstash/internal/registry"
)

// Options controls how deep a capture goes.
type Options struct {
	// Recurse enables capturing children of recursable nodes.
	Recurse bool
	// Recursable lists the classes whose children are captured.
	Recursable registry.ClassSet
}

// Capture records the selected nodes, in order, depth-first. It only reads
// from the host.
func Capture(ctx context.Context, nodes []host.Node, opts Options) ([]*record.Node, error) {
	logger := ctxlog.FromContext(ctx)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes selected", faults.ErrInvalidSelection)
	}
	for i, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: selection entry %d is nil", faults.ErrInvalidSelection, i)
		}
	}

	c := &capturer{opts: opts}
	out := make([]*record.Node, 0, len(nodes))
	for _, n := range nodes {
		rec, err := c.node(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	logger.Info("Captured nodes.", "roots", len(out), "total", c.count)
	return out, nil
}

type capturer struct {
	opts  Options
	count int
}

func (c *capturer) node(ctx context.Context, n host.Node) (*record.Node, error) {
	path := n.Path()
	params, err := captureParameters(path, n.Parameters())
	if err != nil {
		return nil, err
	}
	inputs, err := capturePorts(path, host.Input, n.Inputs())
	if err != nil {
		return nil, err
	}
	outputs, err := capturePorts(path, host.Output, n.Outputs())
	if err != nil {
		return nil, err
	}

	rec := &record.Node{
		Name:       n.Name(),
		Path:       path,
		ClassName:  n.ClassName(),
		Position:   n.Position(),
		Parameters: params,
		Inputs:     inputs,
		Outputs:    outputs,
	}
	c.count++
	ctxlog.FromContext(ctx).Debug("Captured node.", "path", path, "class", rec.ClassName)

	if !c.opts.Recurse || !c.opts.Recursable.Contains(rec.ClassName) {
		return rec, nil
	}

	children, err := n.Children()
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", path, err)
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		cr, err := c.node(ctx, child)
		if err != nil {
			return nil, err
		}
		rec.Children = append(rec.Children, cr)
	}
	return rec, nil
}

func captureParameters(path string, params map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	// sorted so the reported failure is deterministic
	sort.Strings(names)

	for _, name := range names {
		v, err := record.Normalize(params[name])
		if err != nil {
			return nil, &faults.SerializationError{NodePath: path, Field: "parameters." + name, Err: err}
		}
		out[name] = v
	}
	return out, nil
}

func capturePorts(path string, kind host.PortKind, slots []host.Slot) ([]*record.Port, error) {
	out := make([]*record.Port, len(slots))
	for i, s := range slots {
		switch {
		case s.IsNode():
			out[i] = record.NodeRef(s.Path)
		case s.IsEmpty():
			out[i] = nil
		default:
			v, err := record.Normalize(s.Value)
			if err != nil {
				return nil, &faults.SerializationError{
					NodePath: path,
					Field:    fmt.Sprintf("%s[%d]", kind, i),
					Err:      err,
				}
			}
			out[i] = record.ValueRef(v)
		}
	}
	return out, nil
}
