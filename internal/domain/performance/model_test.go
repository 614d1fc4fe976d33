package performance

import (
	"math"
	"testing"
)

func TestDerivePer90ZeroMinutes(t *testing.T) {
	t.Parallel()

	rec := Record{Goals: 3, Assists: 2, GoalsPlusAssists: 5, Nineties: 0}
	rec.DerivePer90()

	for _, rate := range []float64{rec.GoalsPer90, rec.AssistsPer90, rec.GAPer90} {
		if rate != 0 {
			t.Fatalf("per-90 rate with zero nineties must be 0, got %v", rate)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			t.Fatalf("per-90 rate must be finite, got %v", rate)
		}
	}
}

func TestDerivePer90(t *testing.T) {
	t.Parallel()

	rec := Record{Goals: 10, Assists: 5, GoalsPlusAssists: 15, Nineties: 20}
	rec.DerivePer90()

	if rec.GoalsPer90 != 0.5 {
		t.Fatalf("goals per 90: got %v want 0.5", rec.GoalsPer90)
	}
	if rec.AssistsPer90 != 0.25 {
		t.Fatalf("assists per 90: got %v want 0.25", rec.AssistsPer90)
	}
	if rec.GAPer90 != 0.75 {
		t.Fatalf("g+a per 90: got %v want 0.75", rec.GAPer90)
	}
}

func TestNormalizeFillsComparisonFields(t *testing.T) {
	t.Parallel()

	rec := Record{Player: "Kylian Mbappé", League: "la liga", Season: "2023"}
	rec.Normalize()

	if rec.NormalizedName != "kylian mbappe" {
		t.Fatalf("unexpected normalized name: %q", rec.NormalizedName)
	}
	if rec.League != "La-Liga" {
		t.Fatalf("unexpected league: %q", rec.League)
	}
	if rec.Season != "2023-2024" {
		t.Fatalf("unexpected season: %q", rec.Season)
	}
}

func TestStatColumnsOrderStable(t *testing.T) {
	t.Parallel()

	names := StatNames()
	if len(names) == 0 {
		t.Fatal("no stat columns")
	}
	if names[0] != "mp" || names[len(names)-1] != "ga_per90" {
		t.Fatalf("unexpected column order: first=%q last=%q", names[0], names[len(names)-1])
	}

	again := StatNames()
	for i := range names {
		if names[i] != again[i] {
			t.Fatalf("column order not stable at %d: %q vs %q", i, names[i], again[i])
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	rec := Record{Player: "A", League: "La-Liga", Season: "2023-2024"}
	if err := rec.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	if err := (Record{League: "La-Liga", Season: "2023-2024"}).Validate(); err == nil {
		t.Fatal("record without player accepted")
	}
	if err := (Record{Player: "A", Season: "2023-2024"}).Validate(); err == nil {
		t.Fatal("record without league accepted")
	}
	if err := (Record{Player: "A", League: "La-Liga", Season: "2023-2024", Minutes: -1}).Validate(); err == nil {
		t.Fatal("record with negative minutes accepted")
	}
}
