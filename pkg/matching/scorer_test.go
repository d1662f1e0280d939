package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentity(t *testing.T) {
	scorer := NewScorer()

	for _, s := range []string{"", "a", "joao silva", "ACME Services Lda"} {
		assert.Equal(t, 100, scorer.Similarity(s, s), "similarity(%q, %q)", s, s)
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	scorer := NewScorer()

	pairs := [][2]string{
		{"joao silva", "joao da silva"},
		{"kitten", "sitting"},
		{"abc", ""},
		{"maria", "marta"},
	}
	for _, pair := range pairs {
		assert.Equal(t, scorer.Similarity(pair[0], pair[1]), scorer.Similarity(pair[1], pair[0]))
	}
}

func TestSimilarity(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "both empty", a: "", b: "", expected: 100},
		{name: "one empty", a: "abc", b: "", expected: 0},
		{name: "case insensitive", a: "Joao Silva", b: "joao silva", expected: 100},
		{name: "trimmed before comparison", a: " joao silva ", b: "joao silva", expected: 100},
		{name: "kitten sitting", a: "kitten", b: "sitting", expected: 57}, // 3 edits over 7
		{name: "one substitution in ten", a: "aaaaaaaaaa", b: "aaaaaaaaab", expected: 90},
		{name: "completely different", a: "abcd", b: "wxyz", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.Similarity(tt.a, tt.b))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{a: "kitten", b: "sitting", expected: 3},
		{a: "flaw", b: "lawn", expected: 2},
		{a: "", b: "abc", expected: 3},
		{a: "abc", b: "abc", expected: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scorer.LevenshteinDistance([]rune(tt.a), []rune(tt.b)))
	}
}

func TestLevenshteinDistanceRuneAccurate(t *testing.T) {
	scorer := NewScorer()

	// Multi-byte runes count as single edits.
	assert.Equal(t, 1, scorer.LevenshteinDistance([]rune("joão"), []rune("joao")))
	assert.Equal(t, 0, scorer.LevenshteinDistance([]rune("ção"), []rune("ção")))
}
