package usecase

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
)

func completeMatch(player, position, league string, year int, fee float64) matched.Transfer {
	before := record(player, league, "2022")
	before.Position = position
	after := record(player, league, "2023")

	e := event(player, league, year)
	e.Fee = fee
	return matched.Transfer{Event: e, Before: &before, After: &after, BeforeScore: 100, AfterScore: 100}
}

func TestAssembleRowsPairedAndOrdered(t *testing.T) {
	t.Parallel()

	complete := []matched.Transfer{
		completeMatch("Player One", "FW", "La Liga", 2022, 10_000_000),
		completeMatch("Player Two", "MF", "Serie A", 2023, 15_000_000),
		completeMatch("Player Three", "FW", "La Liga", 2023, 20_000_000),
	}

	service := NewFeatureService(nil)
	dataset, stats, err := service.Assemble(context.Background(), complete)
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}

	if len(dataset.X) != len(dataset.Y) || len(dataset.X) != len(dataset.Years) {
		t.Fatalf("rows not paired: x=%d y=%d years=%d", len(dataset.X), len(dataset.Y), len(dataset.Years))
	}
	if stats.RowsOut != 3 {
		t.Fatalf("unexpected row count: %+v", stats)
	}

	// before_* columns first, then transfer attributes, then one-hots in
	// parent-column order: position before league.
	if dataset.Columns[0] != "before_mp" {
		t.Fatalf("first column: got %q", dataset.Columns[0])
	}
	wantTail := []string{"age", "market_value", "transfer_fee", "pos_FW", "pos_MF", "league_La-Liga", "league_Serie-A"}
	tail := dataset.Columns[len(dataset.Columns)-len(wantTail):]
	if !reflect.DeepEqual(tail, wantTail) {
		t.Fatalf("column tail: got %v want %v", tail, wantTail)
	}

	for i, row := range dataset.X {
		if len(row) != len(dataset.Columns) {
			t.Fatalf("row %d width %d != columns %d", i, len(row), len(dataset.Columns))
		}
	}

	// One-hot rows: first row is FW in La-Liga.
	cols := map[string]int{}
	for i, name := range dataset.Columns {
		cols[name] = i
	}
	first := dataset.X[0]
	if first[cols["pos_FW"]] != 1 || first[cols["pos_MF"]] != 0 {
		t.Fatal("position one-hot wrong for first row")
	}
	if first[cols["league_La-Liga"]] != 1 || first[cols["league_Serie-A"]] != 0 {
		t.Fatal("league one-hot wrong for first row")
	}
}

func TestAssembleDropsRowsWithMissingNumerics(t *testing.T) {
	t.Parallel()

	good := completeMatch("Good Row", "FW", "La Liga", 2023, 10_000_000)
	missingValue := completeMatch("No Value", "FW", "La Liga", 2023, 10_000_000)
	missingValue.Event.MarketValue = math.NaN()

	service := NewFeatureService(nil)
	dataset, stats, err := service.Assemble(context.Background(), []matched.Transfer{good, missingValue})
	if err != nil {
		t.Fatalf("Assemble error: %v", err)
	}

	if stats.DroppedMissing != 1 || stats.RowsOut != 1 {
		t.Fatalf("missing-value row not dropped: %+v", stats)
	}
	if len(dataset.X) != 1 || len(dataset.Y) != 1 {
		t.Fatalf("paired drop violated: x=%d y=%d", len(dataset.X), len(dataset.Y))
	}
}

func TestAssembleDeterministicColumns(t *testing.T) {
	t.Parallel()

	complete := []matched.Transfer{
		completeMatch("One", "MF", "Serie A", 2022, 8_000_000),
		completeMatch("Two", "FW", "La Liga", 2023, 9_000_000),
	}

	service := NewFeatureService(nil)
	first, _, err := service.Assemble(context.Background(), complete)
	if err != nil {
		t.Fatalf("first assemble: %v", err)
	}
	second, _, err := service.Assemble(context.Background(), complete)
	if err != nil {
		t.Fatalf("second assemble: %v", err)
	}

	if !reflect.DeepEqual(first.Columns, second.Columns) {
		t.Fatal("column order not deterministic")
	}
	if !reflect.DeepEqual(first.X, second.X) {
		t.Fatal("feature values not deterministic")
	}
}

func TestOneHotEncoderUnseenCategory(t *testing.T) {
	t.Parallel()

	enc := NewOneHotEncoder("pos", []string{"FW", "MF", "FW"})
	if len(enc.Categories) != 2 {
		t.Fatalf("duplicate category recorded: %v", enc.Categories)
	}

	row := enc.Transform("GK")
	for _, v := range row {
		if v != 0 {
			t.Fatalf("unseen category must encode all-zero, got %v", row)
		}
	}
}

func TestStandardScalerCentersTrainingData(t *testing.T) {
	t.Parallel()

	x := [][]float64{{1, 100}, {2, 200}, {3, 300}, {4, 400}}
	var scaler StandardScaler
	scaler.Fit(x)
	scaled := scaler.Transform(x)

	for j := 0; j < 2; j++ {
		sum := 0.0
		for i := range scaled {
			sum += scaled[i][j]
		}
		if mean := sum / float64(len(scaled)); math.Abs(mean) > 1e-9 {
			t.Fatalf("column %d not centered: mean=%v", j, mean)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	t.Parallel()

	x := [][]float64{{7}, {7}, {7}}
	var scaler StandardScaler
	scaler.Fit(x)
	scaled := scaler.Transform(x)

	for _, row := range scaled {
		if math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
			t.Fatalf("constant column produced non-finite value: %v", row[0])
		}
	}
}
