package tokens

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one token's value: either a literal or a per-platform mapping.
type Entry struct {
	Value string
	PerOS map[string]string
}

// Literal returns an Entry holding a single value for every platform.
func Literal(v string) Entry {
	return Entry{Value: v}
}

// PerPlatform returns an Entry keyed by operating system name.
func PerPlatform(values map[string]string) Entry {
	perOS := make(map[string]string, len(values))
	for k, v := range values {
		perOS[strings.ToLower(k)] = v
	}
	return Entry{PerOS: perOS}
}

// IsPlatformKeyed reports whether the entry selects a value by platform.
func (e Entry) IsPlatformKeyed() bool {
	return e.PerOS != nil
}

// UnmarshalJSON accepts a string or an object of strings.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Literal(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("token value must be a string or an object of strings: %w", err)
	}
	*e = PerPlatform(m)
	return nil
}

// MarshalJSON writes the entry back in the same shape it was read.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsPlatformKeyed() {
		return json.Marshal(e.PerOS)
	}
	return json.Marshal(e.Value)
}

// UnmarshalYAML accepts a scalar or a mapping of scalars.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*e = Literal(s)
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*e = PerPlatform(m)
		return nil
	default:
		return fmt.Errorf("line %d: token value must be a string or a mapping of strings", node.Line)
	}
}

// Table maps token names to their values.
type Table map[string]Entry

// Names returns the token names, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new table holding t's entries overlaid by other's.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ParseJSON reads a JSON token table.
func ParseJSON(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse token table: %w", err)
	}
	return t, nil
}

// ParseYAML reads a YAML token table.
func ParseYAML(r io.Reader) (Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		if err == io.EOF {
			return Table{}, nil
		}
		return nil, fmt.Errorf("failed to parse token table: %w", err)
	}
	return t, nil
}

// LoadTable reads a token table file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var t Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		t, err = ParseYAML(f)
	default:
		t, err = ParseJSON(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}
