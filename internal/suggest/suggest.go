// Package suggest finds the closest known name for a misspelled one.
package suggest

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Closest returns the candidate with the smallest edit distance to name, or
// "" when nothing is close enough to be a plausible typo. Ties resolve to
// the lexically smaller candidate.
func Closest(name string, candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestDist := "", -1
	for _, c := range sorted {
		d := levenshtein.ComputeDistance(name, c)
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > threshold(name) {
		return ""
	}
	return best
}

func threshold(name string) int {
	if t := len(name) / 3; t > 2 {
		return t
	}
	return 2
}
