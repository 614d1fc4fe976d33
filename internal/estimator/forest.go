package estimator

import (
	"math/rand"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// RandomForest averages fully grown trees fitted on bootstrap samples.
// Trees are fitted in parallel; each tree draws from its own seeded
// source, so results do not depend on scheduling.
type RandomForest struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64

	trees  []*regressionTree
	fitted bool
}

func NewRandomForest() *RandomForest {
	return &RandomForest{Trees: 300, MaxDepth: 0, MinLeaf: 1, Seed: 50}
}

func (m *RandomForest) Name() string { return "random_forest" }

func (m *RandomForest) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}

	m.trees = make([]*regressionTree, m.Trees)

	workers := pool.New().WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for t := 0; t < m.Trees; t++ {
		t := t
		workers.Go(func() {
			rng := rand.New(rand.NewSource(m.Seed + int64(t)))
			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.Intn(len(x))
			}

			tree := newRegressionTree(m.MaxDepth, m.MinLeaf)
			tree.fit(x, y, sample)
			m.trees[t] = tree
		})
	}
	workers.Wait()

	m.fitted = true
	return nil
}

func (m *RandomForest) Predict(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	out := make([]float64, len(x))
	for i, row := range x {
		sum := 0.0
		for _, tree := range m.trees {
			sum += tree.predictOne(row)
		}
		out[i] = sum / float64(len(m.trees))
	}
	return out, nil
}
