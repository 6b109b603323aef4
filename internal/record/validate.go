package record

import (
	"fmt"

	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/nodeid"
)

// Validate checks the structural invariants of a capture tree:
//   - every path parses as a host path and is unique across the tree
//   - names are non-empty and unique among siblings
//   - only recursable classes carry children (skipped when isRecursable is nil)
//
// All violations are collected into a single *faults.MalformedCaptureError.
func Validate(records []*Node, isRecursable func(className string) bool) error {
	var problems []string
	seenPaths := make(map[string]struct{})

	var check func(nodes []*Node, parent string)
	check = func(nodes []*Node, parent string) {
		siblings := make(map[string]struct{})
		for i, n := range nodes {
			if n == nil {
				problems = append(problems, fmt.Sprintf("%s: child %d is null", parent, i))
				continue
			}
			if n.Name == "" {
				problems = append(problems, fmt.Sprintf("%s: record %d has no name", parent, i))
			} else if _, dup := siblings[n.Name]; dup {
				problems = append(problems, fmt.Sprintf("%s: duplicate sibling name %q", parent, n.Name))
			}
			siblings[n.Name] = struct{}{}

			if _, err := nodeid.Parse(n.Path); err != nil {
				problems = append(problems, fmt.Sprintf("record %q: %v", n.Name, err))
			} else if _, dup := seenPaths[n.Path]; dup {
				problems = append(problems, fmt.Sprintf("duplicate path %s", n.Path))
			}
			seenPaths[n.Path] = struct{}{}

			if n.ClassName == "" {
				problems = append(problems, fmt.Sprintf("%s: missing class_name", n.Path))
			}
			if len(n.Children) > 0 && isRecursable != nil && !isRecursable(n.ClassName) {
				problems = append(problems, fmt.Sprintf("%s: class %q is not recursable but has %d children", n.Path, n.ClassName, len(n.Children)))
			}
			check(n.Children, n.Path)
		}
	}
	check(records, "<root>")

	if len(problems) > 0 {
		return &faults.MalformedCaptureError{Problems: problems}
	}
	return nil
}
