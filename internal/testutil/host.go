package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/inmemoryhost"
	"github.com/vk/compstash/modules/touchdesigner"
)

// NewHost returns an in-memory host that knows every touchdesigner class.
// noiseTOP and levelTOP carry a few parameters with defaults.
func NewHost() *inmemoryhost.Host {
	h := inmemoryhost.New()
	for _, family := range touchdesigner.Classes {
		for _, name := range family {
			h.DefineClass(name, nil)
		}
	}
	h.DefineClass("noiseTOP", map[string]any{"seed": 1.0, "period": 1.0})
	h.DefineClass("levelTOP", map[string]any{"opacity": 1.0})
	return h
}

// BuildChain creates a baseCOMP named base under parent holding
// noise1 -> level1 -> null1, and returns the base node.
func BuildChain(t *testing.T, parent *inmemoryhost.Node, base string) *inmemoryhost.Node {
	t.Helper()

	comp, err := parent.CreateNode("baseCOMP", base)
	require.NoError(t, err)
	noise, err := comp.CreateNode("noiseTOP", "noise1")
	require.NoError(t, err)
	level, err := comp.CreateNode("levelTOP", "level1")
	require.NoError(t, err)
	null, err := comp.CreateNode("nullTOP", "null1")
	require.NoError(t, err)

	_, err = noise.SetParameter("seed", 7.0)
	require.NoError(t, err)
	require.NoError(t, level.Connect(host.Input, 0, noise))
	require.NoError(t, null.Connect(host.Input, 0, level))
	return comp
}
