package registry

import "sort"

// ClassSet is a set of class names.
type ClassSet map[string]struct{}

// NewClassSet builds a set from names.
func NewClassSet(names ...string) ClassSet {
	s := make(ClassSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set. A nil set contains nothing.
func (s ClassSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members, sorted.
func (s ClassSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (s ClassSet) Clone() ClassSet {
	out := make(ClassSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}
