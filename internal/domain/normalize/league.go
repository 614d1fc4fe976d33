package normalize

import "strings"

// Canonical league tokens. These match the fbref URL slugs so collected
// files and transfer records land on the same vocabulary.
const (
	LeaguePremierLeague = "Premier-League"
	LeagueLaLiga        = "La-Liga"
	LeagueSerieA        = "Serie-A"
	LeagueBundesliga    = "Bundesliga"
	LeagueLigue1        = "Ligue-1"
)

// leagueFragments maps lowercase name fragments to canonical tokens.
// Order matters only for readability; fragments are mutually exclusive.
var leagueFragments = []struct {
	fragment  string
	canonical string
}{
	{"premier", LeaguePremierLeague},
	{"la liga", LeagueLaLiga},
	{"la-liga", LeagueLaLiga},
	{"laliga", LeagueLaLiga},
	{"serie", LeagueSerieA},
	{"bundesliga", LeagueBundesliga},
	{"ligue", LeagueLigue1},
}

// League maps a free-text league label to its canonical token via
// case-insensitive substring containment. Unrecognized input passes
// through trimmed but otherwise unchanged, so a bad label surfaces as a
// visible mismatch downstream instead of a silently dropped row.
func League(raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return ""
	}

	lower := strings.ToLower(label)
	for _, entry := range leagueFragments {
		if strings.Contains(lower, entry.fragment) {
			return entry.canonical
		}
	}

	return label
}

// KnownLeague reports whether label is one of the canonical tokens.
func KnownLeague(label string) bool {
	switch label {
	case LeaguePremierLeague, LeagueLaLiga, LeagueSerieA, LeagueBundesliga, LeagueLigue1:
		return true
	default:
		return false
	}
}
