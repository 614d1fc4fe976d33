package transfer

import (
	"math"
	"testing"
)

func TestYearFromSource(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"Bundesliga_2023.csv", 2023},
		{"premier_league_2021.csv", 2021},
		{"no-year.csv", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := YearFromSource(tc.in); got != tc.want {
			t.Fatalf("YearFromSource(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDerivesSeasons(t *testing.T) {
	t.Parallel()

	event := Event{
		Player:     "João Félix",
		League:     "la liga",
		SourceFile: "la_liga_2023.csv",
	}
	event.Normalize()

	if event.NormalizedName != "joao felix" {
		t.Fatalf("unexpected normalized name: %q", event.NormalizedName)
	}
	if event.League != "La-Liga" {
		t.Fatalf("unexpected league: %q", event.League)
	}
	if event.TransferYear != 2023 {
		t.Fatalf("unexpected transfer year: %d", event.TransferYear)
	}
	if event.SeasonBefore != "2022-2023" || event.SeasonAfter != "2023-2024" {
		t.Fatalf("unexpected seasons: before=%q after=%q", event.SeasonBefore, event.SeasonAfter)
	}
}

func TestAdmissionRules(t *testing.T) {
	t.Parallel()

	rules := DefaultAdmissionRules()

	admit := Event{Player: "A", Position: "Centre-Forward", Fee: 25_000_000}
	if !rules.Admit(admit) {
		t.Fatal("eligible forward above fee floor rejected")
	}

	cheap := Event{Player: "B", Position: "Attacking Midfield", Fee: 2_000_000}
	if rules.Admit(cheap) {
		t.Fatal("transfer below fee floor admitted")
	}

	keeper := Event{Player: "C", Position: "Goalkeeper", Fee: 30_000_000}
	if rules.Admit(keeper) {
		t.Fatal("ineligible position admitted")
	}

	missingFee := Event{Player: "D", Position: "Winger", Fee: math.NaN()}
	if rules.Admit(missingFee) {
		t.Fatal("transfer with missing fee admitted")
	}
}
