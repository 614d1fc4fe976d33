// Package similarity scores how close two normalized player names are on a
// 0-100 scale. The matcher only depends on the Scorer interface, so the
// edit-distance implementation can be swapped without touching match flow.
package similarity

import "github.com/agnivade/levenshtein"

// Scorer computes a similarity score between two strings.
// 100 means identical, 0 means nothing in common.
type Scorer interface {
	Score(a, b string) int
}

// LevenshteinScorer scores by edit-distance ratio: 100 * (1 - d/maxlen)
// where d is the Levenshtein distance in runes.
type LevenshteinScorer struct{}

func NewLevenshteinScorer() LevenshteinScorer {
	return LevenshteinScorer{}
}

func (LevenshteinScorer) Score(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}

	distance := levenshtein.ComputeDistance(a, b)
	if distance >= longest {
		return 0
	}

	return (longest - distance) * 100 / longest
}
