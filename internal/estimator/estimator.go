// Package estimator provides the pluggable regression models the trainer
// runs. Every estimator is deterministic under its configured seed.
package estimator

import "errors"

// Estimator is the fit/predict contract the trainer depends on. X is
// row-major; Fit must be called before Predict.
type Estimator interface {
	Name() string
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

var (
	ErrNotFitted      = errors.New("estimator is not fitted")
	ErrEmptyTraining  = errors.New("training set is empty")
	ErrShapeMismatch  = errors.New("feature matrix and target lengths differ")
	ErrColumnMismatch = errors.New("prediction input has wrong column count")
)

func validateTrainingSet(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrEmptyTraining
	}
	if len(x) != len(y) {
		return ErrShapeMismatch
	}
	return nil
}
