// Package suggest implements "did you mean" candidate matching for
// unresolved STL names, ported from
// original_source/stl/levenshtein.py.
package suggest

import "strings"

// Distance returns the case-insensitive Levenshtein edit distance between a
// and b: the minimum number of single-character insertions, deletions, and
// substitutions needed to turn a into b.
func Distance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ClosestCandidate returns the candidate string with the smallest
// Levenshtein distance to target. Returns "" if candidates is empty.
func ClosestCandidate(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	bestDist := Distance(target, best)
	for _, c := range candidates[1:] {
		if d := Distance(target, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
