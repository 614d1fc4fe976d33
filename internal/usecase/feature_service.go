package usecase

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/transfermetrics/pipeline/internal/domain/matched"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// TargetColumn is the performance measure being predicted: goal
// contributions per 90 in the season after the transfer.
const TargetColumn = "after_ga_per90"

// Dataset pairs a numeric feature matrix with its target vector. Rows of
// X, Y and Years always correspond 1:1; dropping a row drops all three.
type Dataset struct {
	Columns []string
	X       [][]float64
	Y       []float64
	Years   []int
}

func (d Dataset) Len() int { return len(d.X) }

type FeatureStats struct {
	RowsIn         int `json:"rows_in"`
	RowsOut        int `json:"rows_out"`
	DroppedMissing int `json:"dropped_missing"`
}

// OneHotEncoder expands one categorical column into indicator columns.
// Categories are recorded in first-appearance order at fit time; a value
// unseen at fit time transforms to an all-zero indicator row.
type OneHotEncoder struct {
	Column     string
	Categories []string
	index      map[string]int
}

func NewOneHotEncoder(column string, values []string) *OneHotEncoder {
	enc := &OneHotEncoder{Column: column, index: make(map[string]int)}
	for _, value := range values {
		if _, seen := enc.index[value]; seen {
			continue
		}
		enc.index[value] = len(enc.Categories)
		enc.Categories = append(enc.Categories, value)
	}
	return enc
}

func (e *OneHotEncoder) ColumnNames() []string {
	names := make([]string, 0, len(e.Categories))
	for _, category := range e.Categories {
		names = append(names, e.Column+"_"+category)
	}
	return names
}

func (e *OneHotEncoder) Transform(value string) []float64 {
	row := make([]float64, len(e.Categories))
	if i, ok := e.index[value]; ok {
		row[i] = 1
	}
	return row
}

// FeatureService assembles the numeric dataset from complete matches.
type FeatureService struct {
	logger *logging.Logger
}

func NewFeatureService(logger *logging.Logger) *FeatureService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeatureService{logger: logger}
}

// Assemble builds (X, y) from the complete partition. Feature order is
// fixed: before_* stat columns in schema order, then the transfer
// attributes, then one-hot encodings in the order their parent columns
// appear (position, destination league). Rows with any missing numeric
// are dropped, never imputed.
func (s *FeatureService) Assemble(ctx context.Context, complete []matched.Transfer) (Dataset, FeatureStats, error) {
	stats := FeatureStats{RowsIn: len(complete)}
	if len(complete) == 0 {
		return Dataset{}, stats, fmt.Errorf("assemble features: %w", ErrEmptyDataset)
	}

	positions := make([]string, 0, len(complete))
	leagues := make([]string, 0, len(complete))
	for _, row := range complete {
		positions = append(positions, row.Before.Position)
		leagues = append(leagues, row.Event.League)
	}
	positionEnc := NewOneHotEncoder("pos", positions)
	leagueEnc := NewOneHotEncoder("league", leagues)

	statColumns := complete[0].Before.StatColumns()
	columns := make([]string, 0, len(statColumns)+3+len(positionEnc.Categories)+len(leagueEnc.Categories))
	for _, stat := range statColumns {
		columns = append(columns, "before_"+stat.Name)
	}
	columns = append(columns, "age", "market_value", "transfer_fee")
	columns = append(columns, positionEnc.ColumnNames()...)
	columns = append(columns, leagueEnc.ColumnNames()...)

	dataset := Dataset{Columns: columns}
	for _, row := range complete {
		if err := ctx.Err(); err != nil {
			return Dataset{}, FeatureStats{}, err
		}

		features := make([]float64, 0, len(columns))
		for _, stat := range row.Before.StatColumns() {
			features = append(features, stat.Value)
		}
		features = append(features, row.Event.Age, row.Event.MarketValue, row.Event.Fee)
		features = append(features, positionEnc.Transform(row.Before.Position)...)
		features = append(features, leagueEnc.Transform(row.Event.League)...)

		target := row.After.GAPer90
		if hasMissing(features) || math.IsNaN(target) {
			stats.DroppedMissing++
			continue
		}

		dataset.X = append(dataset.X, features)
		dataset.Y = append(dataset.Y, target)
		dataset.Years = append(dataset.Years, row.Event.TransferYear)
	}

	stats.RowsOut = dataset.Len()
	s.logger.Info("feature matrix assembled",
		"rows_in", stats.RowsIn,
		"rows_out", stats.RowsOut,
		"dropped_missing", stats.DroppedMissing,
		"columns", len(dataset.Columns),
	)

	if dataset.Len() == 0 {
		return Dataset{}, stats, fmt.Errorf("assemble features: all rows dropped: %w", ErrEmptyDataset)
	}
	return dataset, stats, nil
}

func hasMissing(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// StandardScaler centers and scales columns to unit variance. Fit on the
// training split only; the test split reuses the training moments.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

func (s *StandardScaler) Fit(x [][]float64) {
	if len(x) == 0 {
		return
	}
	cols := len(x[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	column := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			column[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1 // constant column, leave values centered only
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
}

func (s *StandardScaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out
}
