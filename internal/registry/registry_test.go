package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/inmemoryhost"
)

func TestRegisterClass_DuplicatePanics(t *testing.T) {
	r := New()
	r.RegisterHostClasses("noiseTOP")

	assert.Panics(t, func() { r.RegisterHostClasses("noiseTOP") })
	assert.Panics(t, func() { r.RegisterClass("levelTOP", nil) })
}

func TestLookup(t *testing.T) {
	r := New()
	r.RegisterHostClasses("noiseTOP", "levelTOP", "baseCOMP")

	h := inmemoryhost.New()
	h.DefineClass("noiseTOP", nil)

	ctor, err := r.Lookup("noiseTOP")
	require.NoError(t, err)
	n, err := ctor(h.Root(), "noise1")
	require.NoError(t, err)
	assert.Equal(t, "/noise1", n.Path())
	assert.Equal(t, "noiseTOP", n.ClassName())

	_, err = r.Lookup("noiseTop")
	require.ErrorIs(t, err, faults.ErrUnknownNodeClass)

	var uce *faults.UnknownClassError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "noiseTOP", uce.Suggestion)

	assert.True(t, r.Has("levelTOP"))
	assert.Equal(t, []string{"baseCOMP", "levelTOP", "noiseTOP"}, r.Classes())
}

func TestRecursable(t *testing.T) {
	r := New()
	r.MarkRecursable("baseCOMP", "containerCOMP")

	set := r.Recursable()
	assert.True(t, set.Contains("baseCOMP"))
	assert.False(t, set.Contains("noiseTOP"))

	set["noiseTOP"] = struct{}{}
	assert.False(t, r.Recursable().Contains("noiseTOP"), "Recursable returns a copy")

	r.SetRecursable(NewClassSet("geometryCOMP"))
	assert.Equal(t, []string{"geometryCOMP"}, r.Recursable().Names())

	var nilSet ClassSet
	assert.False(t, nilSet.Contains("anything"))
}

type testModule struct{}

func (testModule) Register(r *Registry) {
	r.RegisterHostClasses("nullTOP")
	r.MarkRecursable("baseCOMP")
}

func TestModuleRegistration(t *testing.T) {
	r := New()
	var m Module = testModule{}
	m.Register(r)

	assert.True(t, r.Has("nullTOP"))
	assert.True(t, r.Recursable().Contains("baseCOMP"))
}
