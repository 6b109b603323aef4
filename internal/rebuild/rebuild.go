package rebuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/vk/compstash/internal/ctxlog"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
	"github.com/vk/compstash/internal/registry"
)

// Options controls a reconstruction.
type Options struct {
	// Recurse rebuilds the children stored in the records.
	Recurse bool
	// Registry supplies the constructor for every class.
	Registry *registry.Registry
}

type built struct {
	rec  *record.Node
	node host.Node
}

type builder struct {
	logger  *slog.Logger
	host    host.Host
	opts    Options
	order   []built
	byPath  map[string]host.Node
	roots   []host.Node
	skipped int
}

// Reconstruct builds the records under target and returns the created root
// nodes in input order.
func Reconstruct(ctx context.Context, h host.Host, target host.Node, records []*record.Node, opts Options) ([]host.Node, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no target node", faults.ErrInvalidSelection)
	}
	if opts.Registry == nil {
		return nil, errors.New("reconstruct: no class registry")
	}

	b := &builder{
		logger: ctxlog.FromContext(ctx).With("target", target.Path()),
		host:   h,
		opts:   opts,
		byPath: make(map[string]host.Node),
	}

	if err := b.validate(records); err != nil {
		return nil, err
	}

	if err := b.run(target, records); err != nil {
		b.rollback()
		return nil, err
	}

	b.logger.Info("Reconstructed nodes.", "roots", len(b.roots), "total", len(b.order), "skipped_parameters", b.skipped)
	return b.roots, nil
}

func (b *builder) run(target host.Node, records []*record.Node) error {
	for _, rec := range records {
		if err := b.create(target, rec, true); err != nil {
			return err
		}
	}
	for _, bn := range b.order {
		if err := b.connect(bn); err != nil {
			return err
		}
	}
	for _, bn := range b.order {
		if err := b.applyParameters(bn); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) validate(records []*record.Node) error {
	recursable := b.opts.Registry.Recursable()
	var check func(nodes []*record.Node) error
	check = func(nodes []*record.Node) error {
		for _, rec := range nodes {
			if rec == nil {
				return &faults.MalformedCaptureError{Problems: []string{"null record in batch"}}
			}
			if _, err := b.opts.Registry.Lookup(rec.ClassName); err != nil {
				var uce *faults.UnknownClassError
				if errors.As(err, &uce) {
					uce.NodePath = rec.Path
				}
				return err
			}
			if b.opts.Recurse {
				if len(rec.Children) > 0 && !recursable.Contains(rec.ClassName) {
					return &faults.MalformedCaptureError{Problems: []string{
						fmt.Sprintf("%s: class %q is not recursable but has %d children", rec.Path, rec.ClassName, len(rec.Children)),
					}}
				}
				if err := check(rec.Children); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return check(records)
}

func (b *builder) create(parent host.Node, rec *record.Node, root bool) error {
	ctor, err := b.opts.Registry.Lookup(rec.ClassName)
	if err != nil {
		return err
	}
	if _, dup := b.byPath[rec.Path]; dup {
		return &faults.MalformedCaptureError{Problems: []string{fmt.Sprintf("duplicate path %s", rec.Path)}}
	}
	n, err := ctor(parent, rec.Name)
	if err != nil {
		return fmt.Errorf("failed to create %s (%s) under %s: %w", rec.Name, rec.ClassName, parent.Path(), err)
	}
	if root {
		b.roots = append(b.roots, n)
	}
	b.order = append(b.order, built{rec: rec, node: n})
	b.byPath[rec.Path] = n

	if err := n.SetPosition(rec.Position); err != nil {
		return fmt.Errorf("failed to position %s: %w", n.Path(), err)
	}
	b.logger.Debug("Created node.", "from", rec.Path, "path", n.Path(), "class", rec.ClassName)

	if !b.opts.Recurse {
		return nil
	}
	for _, child := range rec.Children {
		if err := b.create(n, child, false); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) connect(bn built) error {
	sides := []struct {
		kind  host.PortKind
		ports []*record.Port
	}{
		{host.Input, bn.rec.Inputs},
		{host.Output, bn.rec.Outputs},
	}
	for _, side := range sides {
		for i, p := range side.ports {
			if !p.IsNode() {
				continue
			}
			target, err := b.resolve(bn.rec.Path, side.kind, i, p.Path)
			if err != nil {
				return err
			}
			if err := bn.node.Connect(side.kind, i, target); err != nil {
				return fmt.Errorf("failed to connect %s %s[%d] to %s: %w", bn.node.Path(), side.kind, i, target.Path(), err)
			}
			b.logger.Debug("Connected node.", "path", bn.node.Path(), "port", side.kind, "index", i, "target", target.Path())
		}
	}
	return nil
}

// resolve finds the live node for a captured path: first among the nodes of
// this batch, then in the host.
func (b *builder) resolve(from string, kind host.PortKind, index int, path string) (host.Node, error) {
	if n, ok := b.byPath[path]; ok {
		return n, nil
	}
	dangling := &faults.DanglingReferenceError{NodePath: from, Port: string(kind), Index: index, Target: path}
	if b.host == nil {
		return nil, dangling
	}
	n, err := b.host.Lookup(path)
	if err != nil {
		if errors.Is(err, host.ErrNodeNotFound) {
			return nil, dangling
		}
		return nil, fmt.Errorf("failed to look up %s: %w", path, err)
	}
	if n == nil {
		return nil, dangling
	}
	return n, nil
}

func (b *builder) applyParameters(bn built) error {
	names := make([]string, 0, len(bn.rec.Parameters))
	for name := range bn.rec.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		known, err := bn.node.SetParameter(name, bn.rec.Parameters[name])
		if err != nil {
			return fmt.Errorf("failed to set parameter %s on %s: %w", name, bn.node.Path(), err)
		}
		if !known {
			b.skipped++
			b.logger.Debug("Skipped unknown parameter.", "path", bn.node.Path(), "parameter", name)
		}
	}
	return nil
}

func (b *builder) rollback() {
	for _, n := range slices.Backward(b.roots) {
		if err := n.Destroy(); err != nil {
			b.logger.Warn("Failed to destroy node during rollback.", "path", n.Path(), "error", err)
		}
	}
	b.logger.Info("Rolled back reconstruction.", "destroyed_roots", len(b.roots))
	b.roots = nil
}
