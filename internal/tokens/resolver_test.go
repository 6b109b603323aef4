package tokens

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/compstash/internal/faults"
)

func testTable() Table {
	return Table{
		"root": PerPlatform(map[string]string{
			"windows": "C:/proj",
			"linux":   "/srv/proj",
			"Darwin":  "/Users/proj",
		}),
		"sub":   Literal("data"),
		"data":  Literal("<root>/data"),
		"cache": Literal("<data>/cache"),
		"win":   Literal(`D:\assets`),
	}
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		goos     string
		input    string
		expected string
	}{
		{name: "no tokens", goos: "linux", input: "C:/plain/path", expected: "C:/plain/path"},
		{name: "empty input", goos: "linux", input: "", expected: ""},
		{name: "embedded brackets are not tokens", goos: "linux", input: "a/v<2>/b", expected: "a/v<2>/b"},
		{name: "platform keyed windows", goos: "windows", input: "<root>/<sub>", expected: "C:/proj/data"},
		{name: "platform keyed linux", goos: "linux", input: "<root>/<sub>", expected: "/srv/proj/data"},
		{name: "platform keys are case-insensitive", goos: "darwin", input: "<root>", expected: "/Users/proj"},
		{name: "single token", goos: "linux", input: "<sub>", expected: "data"},
		{name: "nested tokens", goos: "linux", input: "<cache>/x.json", expected: "/srv/proj/data/cache/x.json"},
		{name: "backslash separator", goos: "linux", input: `<win>\<sub>`, expected: `D:\assets\data`},
		{name: "first separator wins", goos: "windows", input: `<sub>\<sub>/<sub>`, expected: `data\data\data`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			r := NewResolver(testTable(), WithOS(tc.goos))

			// --- Act ---
			out, err := r.Resolve(tc.input)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestResolve_FixedPoint(t *testing.T) {
	r := NewResolver(testTable(), WithOS("linux"))
	inputs := []string{
		"<root>/<sub>",
		"<cache>/x.json",
		`<win>\<sub>\v<2>`,
		"plain",
		"<sub>",
	}

	for _, in := range inputs {
		once, err := r.Resolve(in)
		require.NoError(t, err)
		twice, err := r.Resolve(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestResolve_Cycles(t *testing.T) {
	testCases := []struct {
		name          string
		table         Table
		input         string
		expectedChain []string
	}{
		{
			name:          "two token cycle",
			table:         Table{"A": Literal("<B>"), "B": Literal("<A>")},
			input:         "<A>",
			expectedChain: []string{"A", "B", "A"},
		},
		{
			name:          "self reference with growth",
			table:         Table{"A": Literal("<A>/x")},
			input:         "<A>/y",
			expectedChain: []string{"A", "A"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.table, WithOS("linux"))

			_, err := r.Resolve(tc.input)

			require.Error(t, err)
			assert.True(t, errors.Is(err, faults.ErrTokenResolution))
			var te *faults.TokenError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.expectedChain, te.Chain)
			assert.Contains(t, err.Error(), "cycle detected")
		})
	}
}

func TestResolve_UnknownTokenSuggests(t *testing.T) {
	r := NewResolver(testTable(), WithOS("linux"))

	_, err := r.Resolve("<rot>/x")

	require.ErrorIs(t, err, faults.ErrTokenResolution)
	var te *faults.TokenError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "rot", te.Token)
	assert.Equal(t, "root", te.Suggestion)
	assert.Contains(t, err.Error(), "did you mean <root>?")
}

func TestResolve_MissingPlatform(t *testing.T) {
	r := NewResolver(testTable(), WithOS("plan9"))

	_, err := r.Resolve("<root>")

	require.ErrorIs(t, err, faults.ErrTokenResolution)
	assert.Contains(t, err.Error(), `no value for platform "plan9"`)
}

func TestResolve_RepeatedReferences(t *testing.T) {
	// --- Arrange ---
	const depth = 12
	table := Table{fmt.Sprintf("t%d", depth): Literal("x")}
	for i := 0; i < depth; i++ {
		table[fmt.Sprintf("t%d", i)] = Literal(fmt.Sprintf("<t%d>/<t%d>", i+1, i+1))
	}
	r := NewResolver(table, WithOS("linux"))

	// --- Act ---
	out, err := r.Resolve("<t0>/<t1>")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, 1<<depth+1<<(depth-1), strings.Count(out, "x"))
	assert.NotContains(t, out, "<")
}

func TestResolve_CycleBehindSharedToken(t *testing.T) {
	r := NewResolver(Table{
		"a": Literal("<b>/<c>"),
		"b": Literal("<d>"),
		"c": Literal("<d>/<a>"),
		"d": Literal("leaf"),
	}, WithOS("linux"))

	_, err := r.Resolve("<a>")

	require.ErrorIs(t, err, faults.ErrTokenResolution)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestMustResolve(t *testing.T) {
	r := NewResolver(Table{"a": Literal("x")}, WithOS("linux"))

	assert.Equal(t, "x/y", r.MustResolve("<a>/y"))
	assert.Panics(t, func() { r.MustResolve("<b>") })
}

func TestWithSeparator(t *testing.T) {
	r := NewResolver(Table{"a": Literal("x")}, WithSeparator("|"))

	out, err := r.Resolve("<a>")

	require.NoError(t, err)
	assert.Equal(t, "x", out)
}
