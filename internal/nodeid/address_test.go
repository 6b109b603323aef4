package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_Navigation(t *testing.T) {
	addr := MustParse("/a/b/c")

	assert.Equal(t, "c", addr.Base())
	assert.Equal(t, "/a/b", addr.Parent().String())
	assert.Equal(t, "/a/b/c/d", addr.Child("d").String())
	assert.Equal(t, "/a/b/c", addr.String(), "Child must not mutate the receiver")

	root := Root()
	assert.True(t, root.IsRoot())
	assert.Equal(t, "/", root.Parent().String())
	assert.Equal(t, "", root.Base())
}

func TestAddress_HasPrefix(t *testing.T) {
	addr := MustParse("/a/b/c")

	assert.True(t, addr.HasPrefix(Root()))
	assert.True(t, addr.HasPrefix(MustParse("/a")))
	assert.True(t, addr.HasPrefix(MustParse("/a/b/c")))
	assert.False(t, addr.HasPrefix(MustParse("/a/bb")))
	assert.False(t, addr.HasPrefix(MustParse("/a/b/c/d")))
}

func TestAddress_Rebase(t *testing.T) {
	addr := MustParse("/a/n1/child")

	moved, ok := addr.Rebase(MustParse("/a"), MustParse("/b/c"))
	require.True(t, ok)
	assert.Equal(t, "/b/c/n1/child", moved.String())

	_, ok = addr.Rebase(MustParse("/x"), Root())
	assert.False(t, ok)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/n1", Join("/", "n1"))
	assert.Equal(t, "/n1", Join("", "n1"))
	assert.Equal(t, "/a/n1", Join("/a", "n1"))
	assert.Equal(t, "/a/n1", Join("/a/", "n1"))
}
