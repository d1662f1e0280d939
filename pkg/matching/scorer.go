package matching

import (
	"math"
	"strings"
)

// Scorer computes name similarity for the fuzzy matching pass
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity returns the normalized edit-distance similarity between two
// strings as an integer percentage 0-100. Inputs are trimmed and lowercased
// before comparison; two empty strings score 100.
func (s *Scorer) Similarity(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	ra := []rune(a)
	rb := []rune(b)

	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 100
	}

	distance := s.LevenshteinDistance(ra, rb)
	return int(math.Round((1.0 - float64(distance)/float64(maxLen)) * 100))
}

// LevenshteinDistance calculates the edit distance between two rune slices
func (s *Scorer) LevenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
