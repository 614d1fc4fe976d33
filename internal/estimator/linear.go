package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearRegression fits ordinary least squares with an intercept term,
// solved by QR decomposition.
type LinearRegression struct {
	Intercept    float64
	Coefficients []float64
	fitted       bool
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Name() string { return "linear_regression" }

func (m *LinearRegression) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}

	rows := len(x)
	cols := len(x[0])

	design := mat.NewDense(rows, cols+1, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	target := mat.NewVecDense(rows, append([]float64(nil), y...))

	var solution mat.VecDense
	if err := solution.SolveVec(design, target); err != nil {
		return fmt.Errorf("solve least squares: %w", err)
	}

	m.Intercept = solution.AtVec(0)
	m.Coefficients = make([]float64, cols)
	for j := 0; j < cols; j++ {
		m.Coefficients[j] = solution.AtVec(j + 1)
	}
	m.fitted = true
	return nil
}

func (m *LinearRegression) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.Coefficients) {
			return nil, ErrColumnMismatch
		}
		pred := m.Intercept
		for j, v := range row {
			pred += m.Coefficients[j] * v
		}
		out[i] = pred
	}
	return out, nil
}
