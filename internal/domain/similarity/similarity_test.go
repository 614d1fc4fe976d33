package similarity

import "testing"

func TestLevenshteinScorer(t *testing.T) {
	t.Parallel()

	scorer := NewLevenshteinScorer()

	cases := []struct {
		a, b string
		want int
	}{
		{"jude bellingham", "jude bellingham", 100},
		{"", "", 100},
		{"jude bellingham", "", 0},
		{"", "anyone", 0},
		{"abcd", "wxyz", 0},
	}

	for _, tc := range cases {
		if got := scorer.Score(tc.a, tc.b); got != tc.want {
			t.Fatalf("Score(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestLevenshteinScorerCloseNames(t *testing.T) {
	t.Parallel()

	scorer := NewLevenshteinScorer()

	// One substitution across 15 runes should score well above any
	// reasonable acceptance threshold.
	got := scorer.Score("jude bellingham", "jude bellinghan")
	if got < 90 {
		t.Fatalf("near-identical names scored too low: %d", got)
	}

	// Unrelated names should fall below the threshold band.
	if got := scorer.Score("jude bellingham", "erling haaland"); got >= 78 {
		t.Fatalf("unrelated names scored too high: %d", got)
	}
}

func TestLevenshteinScorerSymmetric(t *testing.T) {
	t.Parallel()

	scorer := NewLevenshteinScorer()
	pairs := [][2]string{
		{"vinicius junior", "vinicius jose"},
		{"harry kane", "harry maguire"},
	}
	for _, p := range pairs {
		if ab, ba := scorer.Score(p[0], p[1]), scorer.Score(p[1], p[0]); ab != ba {
			t.Fatalf("asymmetric score for %q/%q: %d vs %d", p[0], p[1], ab, ba)
		}
	}
}
