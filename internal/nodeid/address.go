package nodeid

import (
	"slices"
	"strings"
)

// String serializes the Address into its canonical path string.
func (a *Address) String() string {
	if a == nil || len(a.Segments) == 0 {
		return Separator
	}
	return Separator + strings.Join(a.Segments, Separator)
}

// Equal checks for equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return slices.Equal(a.Segments, other.Segments)
}

// IsRoot reports whether the address is the host root.
func (a *Address) IsRoot() bool {
	return a == nil || len(a.Segments) == 0
}

// Base returns the last segment, or "" for the root.
func (a *Address) Base() string {
	if a.IsRoot() {
		return ""
	}
	return a.Segments[len(a.Segments)-1]
}

// Parent returns the address one level up. The parent of the root is the root.
func (a *Address) Parent() *Address {
	if a.IsRoot() {
		return Root()
	}
	return &Address{Segments: slices.Clone(a.Segments[:len(a.Segments)-1])}
}

// Child returns a new address with name appended.
func (a *Address) Child(name string) *Address {
	segs := make([]string, 0, len(a.Segments)+1)
	segs = append(segs, a.Segments...)
	return &Address{Segments: append(segs, name)}
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) a.
func (a *Address) HasPrefix(prefix *Address) bool {
	if prefix.IsRoot() {
		return true
	}
	if len(prefix.Segments) > len(a.Segments) {
		return false
	}
	return slices.Equal(a.Segments[:len(prefix.Segments)], prefix.Segments)
}

// Rebase moves a from under the ancestor `from` to under `to`. It returns
// false when `from` is not an ancestor of a.
func (a *Address) Rebase(from, to *Address) (*Address, bool) {
	if !a.HasPrefix(from) {
		return nil, false
	}
	rest := a.Segments[len(from.Segments):]
	segs := make([]string, 0, len(to.Segments)+len(rest))
	segs = append(segs, to.Segments...)
	return &Address{Segments: append(segs, rest...)}, true
}

// Join returns the string path of name under the parent path. It does not
// validate either argument.
func Join(parent, name string) string {
	if parent == "" || parent == Separator {
		return Separator + name
	}
	return strings.TrimSuffix(parent, Separator) + Separator + name
}
