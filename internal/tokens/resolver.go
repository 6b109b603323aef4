package tokens

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/vk/compstash/internal/faults"
	"github.com/vk/compstash/internal/suggest"
)

var (
	tokenRe        = regexp.MustCompile(`<\w+>`)
	segmentTokenRe = regexp.MustCompile(`^<(\S+)>$`)
	sepRe          = regexp.MustCompile(`[/\\]`)
)

// Resolver resolves tokens against a fixed table for one platform.
type Resolver struct {
	table Table
	goos  string
	sep   string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOS selects the platform used for platform-keyed entries.
func WithOS(goos string) Option {
	return func(r *Resolver) { r.goos = strings.ToLower(goos) }
}

// WithSeparator sets the separator used when the input has none.
func WithSeparator(sep string) Option {
	return func(r *Resolver) { r.sep = sep }
}

// NewResolver creates a resolver for the current platform.
func NewResolver(table Table, opts ...Option) *Resolver {
	r := &Resolver{
		table: table,
		goos:  runtime.GOOS,
		sep:   string(os.PathSeparator),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasTokens reports whether s contains token syntax.
func HasTokens(s string) bool {
	return tokenRe.MatchString(s)
}

// Resolve replaces every token segment of input with its value, recursively.
func (r *Resolver) Resolve(input string) (string, error) {
	return r.resolve(input, nil, make(map[string]string))
}

// MustResolve is like Resolve but panics on error. Intended for static
// configuration known to be valid.
func (r *Resolver) MustResolve(input string) string {
	out, err := r.Resolve(input)
	if err != nil {
		panic(err)
	}
	return out
}

// resolve substitutes the token segments of input. chain holds the tokens
// being expanded, for cycle detection. resolved caches finished tokens so
// that repeated references are expanded once.
func (r *Resolver) resolve(input string, chain []string, resolved map[string]string) (string, error) {
	if !HasTokens(input) {
		return input, nil
	}

	sep := r.sep
	if found := sepRe.FindString(input); found != "" {
		sep = found
	}

	segs := sepRe.Split(input, -1)
	replaced := false
	for i, seg := range segs {
		m := segmentTokenRe.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		name := m[1]
		if slices.Contains(chain, name) {
			return "", &faults.TokenError{
				Token:  chain[0],
				Reason: "cycle detected",
				Chain:  append(slices.Clone(chain), name),
			}
		}

		if value, ok := resolved[name]; ok {
			segs[i] = value
			replaced = true
			continue
		}

		value, err := r.lookup(name)
		if err != nil {
			return "", err
		}
		value, err = r.resolve(value, append(slices.Clone(chain), name), resolved)
		if err != nil {
			return "", err
		}
		resolved[name] = value
		segs[i] = value
		replaced = true
	}

	if !replaced {
		return input, nil
	}
	return strings.Join(segs, sep), nil
}

func (r *Resolver) lookup(name string) (string, error) {
	entry, ok := r.table[name]
	if !ok {
		return "", &faults.TokenError{
			Token:      name,
			Reason:     "unknown token",
			Suggestion: suggest.Closest(name, r.table.Names()),
		}
	}
	if !entry.IsPlatformKeyed() {
		return entry.Value, nil
	}
	value, ok := entry.PerOS[r.goos]
	if !ok {
		return "", &faults.TokenError{
			Token:  name,
			Reason: fmt.Sprintf("no value for platform %q", r.goos),
		}
	}
	return value, nil
}
