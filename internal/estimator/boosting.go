package estimator

// GradientBoosting fits shallow trees sequentially, each one correcting
// the residuals of the ensemble so far. Boosting is inherently ordered,
// so unlike the forest it fits single-threaded.
type GradientBoosting struct {
	Trees        int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int

	base   float64
	trees  []*regressionTree
	fitted bool
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{Trees: 300, LearningRate: 0.05, MaxDepth: 3, MinLeaf: 1}
}

func (m *GradientBoosting) Name() string { return "gradient_boosting" }

func (m *GradientBoosting) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}

	n := len(x)
	m.base = mean(y)
	m.trees = make([]*regressionTree, 0, m.Trees)

	current := make([]float64, n)
	for i := range current {
		current[i] = m.base
	}

	residuals := make([]float64, n)
	indices := make([]int, n)
	for t := 0; t < m.Trees; t++ {
		for i := range residuals {
			residuals[i] = y[i] - current[i]
			indices[i] = i
		}

		tree := newRegressionTree(m.MaxDepth, m.MinLeaf)
		tree.fit(x, residuals, indices)
		m.trees = append(m.trees, tree)

		for i, row := range x {
			current[i] += m.LearningRate * tree.predictOne(row)
		}
	}

	m.fitted = true
	return nil
}

func (m *GradientBoosting) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	out := make([]float64, len(x))
	for i, row := range x {
		pred := m.base
		for _, tree := range m.trees {
			pred += m.LearningRate * tree.predictOne(row)
		}
		out[i] = pred
	}
	return out, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
