package inmemoryhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/record"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h := New()
	h.DefineClass("baseCOMP", nil)
	h.DefineClass("noiseTOP", map[string]any{"seed": 1.0, "period": 2.0})
	return h
}

func TestCreateAndLookup(t *testing.T) {
	h := newTestHost(t)

	a, err := h.Root().CreateNode("baseCOMP", "a")
	require.NoError(t, err)
	n1, err := a.CreateNode("noiseTOP", "n1")
	require.NoError(t, err)

	assert.Equal(t, "/a", a.Path())
	assert.Equal(t, "/a/n1", n1.Path())
	assert.Equal(t, map[string]any{"seed": 1.0, "period": 2.0}, n1.Parameters())

	found, err := h.Lookup("/a/n1")
	require.NoError(t, err)
	assert.Same(t, n1, found)

	root, err := h.Lookup("/")
	require.NoError(t, err)
	assert.Same(t, h.Root(), root)

	_, err = h.Lookup("/a/missing")
	require.ErrorIs(t, err, host.ErrNodeNotFound)
	_, err = h.Lookup("not-a-path")
	require.ErrorIs(t, err, host.ErrNodeNotFound)
}

func TestCreate_Errors(t *testing.T) {
	h := newTestHost(t)

	_, err := h.Root().Create("unknownTOP", "x")
	assert.ErrorContains(t, err, "does not know class")

	_, err = h.Root().Create("baseCOMP", "bad name")
	assert.ErrorContains(t, err, "invalid node name")

	_, err = h.Root().Create("baseCOMP", "a")
	require.NoError(t, err)
	_, err = h.Root().Create("baseCOMP", "a")
	assert.ErrorContains(t, err, "already exists")
}

func TestParameters(t *testing.T) {
	h := newTestHost(t)
	n, err := h.Root().CreateNode("noiseTOP", "n")
	require.NoError(t, err)

	known, err := n.SetParameter("seed", 7.0)
	require.NoError(t, err)
	assert.True(t, known)

	known, err = n.SetParameter("nonsense", 1)
	require.NoError(t, err)
	assert.False(t, known)

	params := n.Parameters()
	params["seed"] = 100.0
	assert.Equal(t, 7.0, n.Parameters()["seed"], "Parameters must return a copy")
}

func TestConnectAndDestroy(t *testing.T) {
	h := newTestHost(t)
	n1, _ := h.Root().CreateNode("noiseTOP", "n1")
	n2, _ := h.Root().CreateNode("noiseTOP", "n2")

	require.NoError(t, n2.Connect(host.Input, 1, n1))
	require.NoError(t, n2.SetValue(host.Output, 0, 0.5))

	assert.Equal(t, []host.Slot{{}, host.NodeSlot("/n1")}, n2.Inputs())
	assert.Equal(t, []host.Slot{{Value: 0.5}}, n2.Outputs())

	require.NoError(t, n1.Destroy())
	assert.Equal(t, []host.Slot{{}, {}}, n2.Inputs(), "slots pointing at destroyed nodes read as empty")
	_, err := h.Lookup("/n1")
	assert.ErrorIs(t, err, host.ErrNodeNotFound)

	assert.Error(t, n2.Connect(host.Input, 0, n1))
	assert.Error(t, n2.Connect(host.Input, -1, n2))
	assert.Error(t, n2.Connect("sideways", 0, n2))
	assert.Error(t, h.Root().Destroy())
}

func TestDestroy_RemovesSubtree(t *testing.T) {
	h := newTestHost(t)
	a, _ := h.Root().CreateNode("baseCOMP", "a")
	_, _ = a.CreateNode("noiseTOP", "inner")

	require.NoError(t, a.Destroy())
	require.NoError(t, a.Destroy(), "destroy is idempotent")

	children, err := h.Root().Children()
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = a.Create("noiseTOP", "again")
	assert.Error(t, err)
}

func TestPosition(t *testing.T) {
	h := newTestHost(t)
	n, _ := h.Root().CreateNode("noiseTOP", "n")
	require.NoError(t, n.SetPosition(record.Position{10, -20}))
	assert.Equal(t, record.Position{10, -20}, n.Position())
}
