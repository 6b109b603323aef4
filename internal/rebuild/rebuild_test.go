package rebuild

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/compstash/internal/capture"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/inmemoryhost"
	"github.com/vk/compstash/internal/record"
	"github.com/vk/compstash/internal/registry"
)

var testClasses = []string{"baseCOMP", "geometryCOMP", "nullTOP", "noiseTOP", "sphereSOP"}

type fixture struct {
	host *inmemoryhost.Host
	reg  *registry.Registry
	a    *inmemoryhost.Node
	b    *inmemoryhost.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h := inmemoryhost.New()
	for _, c := range testClasses {
		h.DefineClass(c, nil)
	}
	h.DefineClass("noiseTOP", map[string]any{"seed": 1.0, "period": 1.0})
	h.DefineClass("sphereSOP", map[string]any{"rad": 1.0})

	reg := registry.New()
	reg.RegisterHostClasses(testClasses...)
	reg.MarkRecursable("baseCOMP", "geometryCOMP")

	a, err := h.Root().CreateNode("baseCOMP", "a")
	require.NoError(t, err)
	b, err := h.Root().CreateNode("baseCOMP", "b")
	require.NoError(t, err)
	return &fixture{host: h, reg: reg, a: a, b: b}
}

func (f *fixture) opts() Options {
	return Options{Recurse: true, Registry: f.reg}
}

func nullRecord(path string, inputs ...*record.Port) *record.Node {
	name := path[strings.LastIndex(path, "/")+1:]
	if inputs == nil {
		inputs = []*record.Port{}
	}
	return &record.Node{
		Name: name, Path: path, ClassName: "nullTOP",
		Parameters: map[string]any{}, Inputs: inputs, Outputs: []*record.Port{},
	}
}

func TestReconstruct_ScenarioB(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	// the originals still exist; batch nodes must win over them
	_, err := f.a.CreateNode("nullTOP", "n1")
	require.NoError(t, err)
	records := []*record.Node{
		nullRecord("/a/n1"),
		nullRecord("/a/n2", record.NodeRef("/a/n1")),
	}

	// --- Act ---
	roots, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "/b/n1", roots[0].Path())
	assert.Equal(t, "/b/n2", roots[1].Path())
	assert.Equal(t, []host.Slot{host.NodeSlot("/b/n1")}, roots[1].Inputs())
}

func TestReconstruct_ForwardReference(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{
		nullRecord("/a/first", record.NodeRef("/a/second")),
		nullRecord("/a/second", record.NodeRef("/a/first")),
	}

	roots, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.NoError(t, err)
	assert.Equal(t, []host.Slot{host.NodeSlot("/b/second")}, roots[0].Inputs())
	assert.Equal(t, []host.Slot{host.NodeSlot("/b/first")}, roots[1].Inputs())
}

func TestReconstruct_ExternalReference(t *testing.T) {
	f := newFixture(t)
	_, err := f.a.CreateNode("nullTOP", "src")
	require.NoError(t, err)
	records := []*record.Node{nullRecord("/x/dst", nil, record.NodeRef("/a/src"))}

	roots, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.NoError(t, err)
	assert.Equal(t, []host.Slot{{}, host.NodeSlot("/a/src")}, roots[0].Inputs())
}

func TestReconstruct_ValuePortsAreNotWired(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{nullRecord("/a/n", record.ValueRef(3.0))}

	roots, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.NoError(t, err)
	assert.Empty(t, roots[0].Inputs())
}

func TestReconstruct_ParametersAndPosition(t *testing.T) {
	f := newFixture(t)
	rec := &record.Node{
		Name: "noise1", Path: "/a/noise1", ClassName: "noiseTOP",
		Position:   record.Position{100, 200},
		Parameters: map[string]any{"seed": 42.0, "notAParameter": "ignored"},
		Inputs:     []*record.Port{}, Outputs: []*record.Port{},
	}

	roots, err := Reconstruct(context.Background(), f.host, f.b, []*record.Node{rec}, f.opts())

	require.NoError(t, err)
	assert.Equal(t, record.Position{100, 200}, roots[0].Position())
	assert.Equal(t, map[string]any{"seed": 42.0, "period": 1.0}, roots[0].Parameters())
}

func TestReconstruct_UnknownClass(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{
		nullRecord("/a/ok"),
		{Name: "bad", Path: "/a/bad", ClassName: "noiseTop", Parameters: map[string]any{}},
	}

	_, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.ErrorIs(t, err, faults.ErrUnknownNodeClass)
	var uce *faults.UnknownClassError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "/a/bad", uce.NodePath)
	assert.Equal(t, "noiseTOP", uce.Suggestion)

	children, err := f.b.Children()
	require.NoError(t, err)
	assert.Empty(t, children, "nothing is created when a class is unknown")
}

func TestReconstruct_DanglingReferenceRollsBack(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{
		{
			Name: "geo", Path: "/a/geo", ClassName: "geometryCOMP",
			Parameters: map[string]any{}, Inputs: []*record.Port{}, Outputs: []*record.Port{},
			Children: []*record.Node{nullRecord("/a/geo/inner")},
		},
		nullRecord("/a/n", record.NodeRef("/nowhere/missing")),
	}

	_, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.ErrorIs(t, err, faults.ErrDanglingReference)
	var dre *faults.DanglingReferenceError
	require.True(t, errors.As(err, &dre))
	assert.Equal(t, "/a/n", dre.NodePath)
	assert.Equal(t, "inputs", dre.Port)
	assert.Equal(t, 0, dre.Index)
	assert.Equal(t, "/nowhere/missing", dre.Target)

	children, err := f.b.Children()
	require.NoError(t, err)
	assert.Empty(t, children, "created roots are destroyed on failure")
	_, err = f.host.Lookup("/b/geo/inner")
	assert.ErrorIs(t, err, host.ErrNodeNotFound)
}

func TestReconstruct_CreateFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{nullRecord("/a/n1"), nullRecord("/a/n1")}
	records[1].Path = "/a/other/n1"

	_, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	children, err := f.b.Children()
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestReconstruct_WithoutRecursion(t *testing.T) {
	f := newFixture(t)
	records := []*record.Node{{
		Name: "geo", Path: "/a/geo", ClassName: "geometryCOMP",
		Parameters: map[string]any{}, Inputs: []*record.Port{}, Outputs: []*record.Port{},
		Children: []*record.Node{{Name: "x", Path: "/a/geo/x", ClassName: "unregisteredTOP"}},
	}}

	roots, err := Reconstruct(context.Background(), f.host, f.b, records, Options{Registry: f.reg})

	require.NoError(t, err)
	children, err := roots[0].Children()
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestReconstruct_RejectsChildrenOfNonRecursableClass(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	records := []*record.Node{
		nullRecord("/a/first"),
		{
			Name: "n", Path: "/a/n", ClassName: "nullTOP",
			Parameters: map[string]any{}, Inputs: []*record.Port{}, Outputs: []*record.Port{},
			Children: []*record.Node{nullRecord("/a/n/inner")},
		},
	}

	// --- Act ---
	_, err := Reconstruct(context.Background(), f.host, f.b, records, f.opts())

	// --- Assert ---
	require.ErrorIs(t, err, faults.ErrMalformedCapture)
	assert.Contains(t, err.Error(), "/a/n")
	children, err := f.b.Children()
	require.NoError(t, err)
	assert.Empty(t, children, "nothing is created when the batch is malformed")
}

func TestReconstruct_InvalidArguments(t *testing.T) {
	f := newFixture(t)

	_, err := Reconstruct(context.Background(), f.host, nil, nil, f.opts())
	assert.ErrorIs(t, err, faults.ErrInvalidSelection)

	_, err = Reconstruct(context.Background(), f.host, f.b, nil, Options{})
	assert.Error(t, err)
}

// rebase rewrites every path under from to live under to.
func rebase(records []*record.Node, from, to string) {
	move := func(p string) string {
		if strings.HasPrefix(p, from+"/") {
			return to + p[len(from):]
		}
		return p
	}
	_ = record.Walk(records, func(n *record.Node, _ int) error {
		n.Path = move(n.Path)
		for _, ports := range [][]*record.Port{n.Inputs, n.Outputs} {
			for _, p := range ports {
				if p.IsNode() {
					p.Path = move(p.Path)
				}
			}
		}
		return nil
	})
}

func TestCaptureReconstruct_RoundTrip(t *testing.T) {
	// --- Arrange ---
	f := newFixture(t)
	geo, err := f.a.CreateNode("geometryCOMP", "geo1")
	require.NoError(t, err)
	sphere, err := geo.CreateNode("sphereSOP", "sphere1")
	require.NoError(t, err)
	_, err = sphere.SetParameter("rad", 2.5)
	require.NoError(t, err)
	require.NoError(t, sphere.SetPosition(record.Position{5, 6}))
	noise, err := f.a.CreateNode("noiseTOP", "noise1")
	require.NoError(t, err)
	null, err := f.a.CreateNode("nullTOP", "null1")
	require.NoError(t, err)
	require.NoError(t, null.Connect(host.Input, 0, noise))
	require.NoError(t, noise.Connect(host.Output, 0, null))
	require.NoError(t, sphere.Connect(host.Input, 1, noise))

	selection := []host.Node{geo, noise, null}
	capOpts := capture.Options{Recurse: true, Recursable: f.reg.Recursable()}
	original, err := capture.Capture(context.Background(), selection, capOpts)
	require.NoError(t, err)

	// --- Act ---
	roots, err := Reconstruct(context.Background(), f.host, f.b, original, f.opts())
	require.NoError(t, err)
	rebuilt, err := capture.Capture(context.Background(), roots, capOpts)
	require.NoError(t, err)

	// --- Assert ---
	rebase(original, "/a", "/b")
	if diff := cmp.Diff(original, rebuilt); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
