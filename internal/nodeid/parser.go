package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single node name, e.g. `noise1` or `geo_2`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// ValidName reports whether name may be used as a single path segment.
func ValidName(name string) bool {
	return segmentRegex.MatchString(name) && isValidSegmentName(name)
}

// Parse creates a new Address by parsing its canonical string representation.
func Parse(raw string) (*Address, error) {
	if raw == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if !strings.HasPrefix(raw, Separator) {
		return nil, fmt.Errorf("path %q must be absolute", raw)
	}
	if raw == Separator {
		return Root(), nil
	}

	addr := &Address{}
	for _, segment := range strings.Split(raw[1:], Separator) {
		if segment == "" {
			return nil, fmt.Errorf("path %q contains empty segment", raw)
		}
		if !ValidName(segment) {
			return nil, fmt.Errorf("invalid path segment %q in %q", segment, raw)
		}
		addr.Segments = append(addr.Segments, segment)
	}

	return addr, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static paths.
func MustParse(raw string) *Address {
	addr, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return addr
}
