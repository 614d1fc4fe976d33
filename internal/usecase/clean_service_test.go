package usecase

import (
	"context"
	"testing"

	"github.com/transfermetrics/pipeline/internal/domain/performance"
)

func TestCleanDropsDeduplicatesAndDerives(t *testing.T) {
	t.Parallel()

	raw := []performance.Record{
		{Player: "Luka Modrić", Squad: "Real Madrid", League: "la liga", Season: "2023",
			Goals: 2, Assists: 6, GoalsPlusAssists: 8, Nineties: 16},
		// Duplicate of the first row once labels normalize.
		{Player: "Luka Modrić", Squad: "Real Madrid", League: "La-Liga", Season: "2023-2024",
			Goals: 2, Assists: 6, GoalsPlusAssists: 8, Nineties: 16},
		{Player: "", League: "La-Liga", Season: "2023-2024"}, // no name
		{Player: "Zero Minutes", Squad: "Cadiz", League: "La Liga", Season: "2023",
			Goals: 0, GoalsPlusAssists: 0, Nineties: 0},
	}

	service := NewCleanService(nil)
	cleaned, stats, err := service.Clean(context.Background(), raw)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}

	if stats.RecordsIn != 4 || stats.RecordsOut != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.DroppedNoName != 1 || stats.Duplicates != 1 {
		t.Fatalf("unexpected drop accounting: %+v", stats)
	}

	modric := cleaned[0]
	if modric.NormalizedName != "luka modric" {
		t.Fatalf("name not normalized: %q", modric.NormalizedName)
	}
	if modric.GAPer90 != 0.5 {
		t.Fatalf("per-90 not derived: got %v want 0.5", modric.GAPer90)
	}

	zero := cleaned[1]
	if zero.GoalsPer90 != 0 || zero.AssistsPer90 != 0 || zero.GAPer90 != 0 {
		t.Fatalf("zero-minutes per-90 rates must be 0: %+v", zero)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	raw := []performance.Record{
		{Player: "Some Player", Squad: "Club", League: "la liga", Season: "2023", Nineties: 10, Goals: 5, GoalsPlusAssists: 5},
	}
	service := NewCleanService(nil)
	if _, _, err := service.Clean(context.Background(), raw); err != nil {
		t.Fatalf("Clean error: %v", err)
	}

	if raw[0].League != "la liga" || raw[0].GoalsPer90 != 0 {
		t.Fatalf("input slice was mutated: %+v", raw[0])
	}
}
