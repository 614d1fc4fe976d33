package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// y = 2*x0 - 3*x1 + 5, exactly linear.
func linearFixture() ([][]float64, []float64) {
	x := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 1}, {3, 2}, {4, 0}, {5, 3},
	}
	y := make([]float64, len(x))
	for i, row := range x {
		y[i] = 2*row[0] - 3*row[1] + 5
	}
	return x, y
}

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	t.Parallel()

	x, y := linearFixture()
	model := NewLinearRegression()
	require.NoError(t, model.Fit(x, y))

	assert.InDelta(t, 5, model.Intercept, 1e-8)
	assert.InDelta(t, 2, model.Coefficients[0], 1e-8)
	assert.InDelta(t, -3, model.Coefficients[1], 1e-8)

	preds, err := model.Predict(x)
	require.NoError(t, err)
	for i := range preds {
		assert.InDelta(t, y[i], preds[i], 1e-8)
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	t.Parallel()

	model := NewLinearRegression()
	if _, err := model.Predict([][]float64{{1}}); err != ErrNotFitted {
		t.Fatalf("predict before fit: got %v, want ErrNotFitted", err)
	}
	if err := model.Fit(nil, nil); err != ErrEmptyTraining {
		t.Fatalf("fit on empty set: got %v, want ErrEmptyTraining", err)
	}
	if err := model.Fit([][]float64{{1}, {2}}, []float64{1}); err != ErrShapeMismatch {
		t.Fatalf("fit with mismatched shapes: got %v, want ErrShapeMismatch", err)
	}

	x, y := linearFixture()
	require.NoError(t, model.Fit(x, y))
	if _, err := model.Predict([][]float64{{1, 2, 3}}); err != ErrColumnMismatch {
		t.Fatalf("predict with wrong columns: got %v, want ErrColumnMismatch", err)
	}
}

func TestRegressionTreeFitsStepFunction(t *testing.T) {
	t.Parallel()

	x := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []float64{0, 0, 0, 9, 9, 9}

	tree := newRegressionTree(0, 1)
	tree.fit(x, y, []int{0, 1, 2, 3, 4, 5})

	if got := tree.predictOne([]float64{2.5}); got != 0 {
		t.Fatalf("left side: got %v want 0", got)
	}
	if got := tree.predictOne([]float64{10.5}); got != 9 {
		t.Fatalf("right side: got %v want 9", got)
	}
}

func TestRandomForestDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	x, y := linearFixture()

	first := NewRandomForest()
	first.Trees = 25
	require.NoError(t, first.Fit(x, y))
	firstPreds, err := first.Predict(x)
	require.NoError(t, err)

	second := NewRandomForest()
	second.Trees = 25
	require.NoError(t, second.Fit(x, y))
	secondPreds, err := second.Predict(x)
	require.NoError(t, err)

	assert.Equal(t, firstPreds, secondPreds)
}

func TestGradientBoostingReducesTrainingError(t *testing.T) {
	t.Parallel()

	x, y := linearFixture()

	model := NewGradientBoosting()
	model.Trees = 100
	require.NoError(t, model.Fit(x, y))

	preds, err := model.Predict(x)
	require.NoError(t, err)

	baseline := mean(y)
	var modelSSE, baselineSSE float64
	for i := range y {
		modelSSE += (y[i] - preds[i]) * (y[i] - preds[i])
		baselineSSE += (y[i] - baseline) * (y[i] - baseline)
	}
	if modelSSE >= baselineSSE {
		t.Fatalf("boosting did not improve on the mean: model=%v baseline=%v", modelSSE, baselineSSE)
	}
}

func TestEstimatorsProduceFinitePredictions(t *testing.T) {
	t.Parallel()

	x, y := linearFixture()
	models := []Estimator{NewLinearRegression(), NewRandomForest(), NewGradientBoosting()}

	for _, model := range models {
		require.NoError(t, model.Fit(x, y), model.Name())
		preds, err := model.Predict(x)
		require.NoError(t, err, model.Name())
		for _, p := range preds {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				t.Fatalf("%s produced non-finite prediction %v", model.Name(), p)
			}
		}
	}
}
