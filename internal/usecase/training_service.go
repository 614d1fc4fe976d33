package usecase

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/transfermetrics/pipeline/internal/estimator"
	"github.com/transfermetrics/pipeline/internal/platform/logging"
)

// Split modes. Holdout shuffles with a fixed seed; temporal trains on
// transfers before the cutoff year and tests on the rest.
const (
	SplitHoldout  = "holdout"
	SplitTemporal = "temporal"
)

type SplitConfig struct {
	Mode            string
	HoldoutFraction float64
	Seed            int64
	CutoffYear      int
}

func DefaultSplitConfig() SplitConfig {
	return SplitConfig{
		Mode:            SplitHoldout,
		HoldoutFraction: 0.20,
		Seed:            42,
		CutoffYear:      2023,
	}
}

// ModelReport is one estimator's goodness of fit on both splits.
type ModelReport struct {
	Model     string  `json:"model"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	TrainR2   float64 `json:"train_r2"`
	TestR2    float64 `json:"test_r2"`
}

// TrainingService runs a single deterministic train/evaluate pass per
// estimator. Estimator failures propagate: a fit that cannot run is a
// configuration bug, not a recoverable condition.
type TrainingService struct {
	split  SplitConfig
	logger *logging.Logger
}

func NewTrainingService(split SplitConfig, logger *logging.Logger) *TrainingService {
	if logger == nil {
		logger = logging.Default()
	}
	if split.Mode == "" {
		split = DefaultSplitConfig()
	}
	return &TrainingService{split: split, logger: logger}
}

// Split partitions the dataset per the configured mode. Both splits keep
// X/Y/Years row pairing intact.
func (s *TrainingService) Split(dataset Dataset) (train, test Dataset, err error) {
	if dataset.Len() < 2 {
		return Dataset{}, Dataset{}, fmt.Errorf("split dataset of %d rows: %w", dataset.Len(), ErrEmptyDataset)
	}

	switch s.split.Mode {
	case SplitHoldout:
		return s.splitHoldout(dataset)
	case SplitTemporal:
		return s.splitTemporal(dataset)
	default:
		return Dataset{}, Dataset{}, fmt.Errorf("unknown split mode %q: %w", s.split.Mode, ErrInvalidInput)
	}
}

func (s *TrainingService) splitHoldout(dataset Dataset) (Dataset, Dataset, error) {
	if s.split.HoldoutFraction <= 0 || s.split.HoldoutFraction >= 1 {
		return Dataset{}, Dataset{}, fmt.Errorf("holdout fraction %v out of (0,1): %w", s.split.HoldoutFraction, ErrInvalidInput)
	}

	n := dataset.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(s.split.Seed))
	rng.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

	testSize := int(float64(n) * s.split.HoldoutFraction)
	if testSize == 0 {
		testSize = 1
	}

	test := takeRows(dataset, indices[:testSize])
	train := takeRows(dataset, indices[testSize:])
	return train, test, nil
}

func (s *TrainingService) splitTemporal(dataset Dataset) (Dataset, Dataset, error) {
	var trainIdx, testIdx []int
	for i, year := range dataset.Years {
		if year < s.split.CutoffYear {
			trainIdx = append(trainIdx, i)
		} else {
			testIdx = append(testIdx, i)
		}
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return Dataset{}, Dataset{}, fmt.Errorf("temporal cutoff %d leaves an empty split: %w", s.split.CutoffYear, ErrInvalidInput)
	}
	return takeRows(dataset, trainIdx), takeRows(dataset, testIdx), nil
}

func takeRows(dataset Dataset, indices []int) Dataset {
	out := Dataset{
		Columns: dataset.Columns,
		X:       make([][]float64, 0, len(indices)),
		Y:       make([]float64, 0, len(indices)),
		Years:   make([]int, 0, len(indices)),
	}
	for _, i := range indices {
		out.X = append(out.X, dataset.X[i])
		out.Y = append(out.Y, dataset.Y[i])
		out.Years = append(out.Years, dataset.Years[i])
	}
	return out
}

// TrainAll fits every estimator on the scaled training split and reports
// R-squared on both splits.
func (s *TrainingService) TrainAll(ctx context.Context, dataset Dataset, estimators ...estimator.Estimator) ([]ModelReport, error) {
	train, test, err := s.Split(dataset)
	if err != nil {
		return nil, err
	}

	var scaler StandardScaler
	scaler.Fit(train.X)
	trainX := scaler.Transform(train.X)
	testX := scaler.Transform(test.X)

	reports := make([]ModelReport, 0, len(estimators))
	for _, est := range estimators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := est.Fit(trainX, train.Y); err != nil {
			return nil, fmt.Errorf("fit %s: %w", est.Name(), err)
		}

		trainPred, err := est.Predict(trainX)
		if err != nil {
			return nil, fmt.Errorf("predict %s on train split: %w", est.Name(), err)
		}
		testPred, err := est.Predict(testX)
		if err != nil {
			return nil, fmt.Errorf("predict %s on test split: %w", est.Name(), err)
		}

		report := ModelReport{
			Model:     est.Name(),
			TrainRows: train.Len(),
			TestRows:  test.Len(),
			TrainR2:   stat.RSquaredFrom(trainPred, train.Y, nil),
			TestR2:    stat.RSquaredFrom(testPred, test.Y, nil),
		}
		reports = append(reports, report)

		s.logger.Info("model evaluated",
			"model", report.Model,
			"train_rows", report.TrainRows,
			"test_rows", report.TestRows,
			"train_r2", fmt.Sprintf("%.4f", report.TrainR2),
			"test_r2", fmt.Sprintf("%.4f", report.TestR2),
		)
	}

	return reports, nil
}
