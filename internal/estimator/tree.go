package estimator

import (
	"math"
	"sort"
)

// regressionTree is a CART regressor used as the base learner by the
// forest and boosting models. maxDepth 0 means unlimited.
type regressionTree struct {
	maxDepth int
	minLeaf  int
	root     *treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func newRegressionTree(maxDepth, minLeaf int) *regressionTree {
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &regressionTree{maxDepth: maxDepth, minLeaf: minLeaf}
}

// fit grows the tree on the rows named by indices. The slice is reordered
// in place during split partitioning; callers pass a private copy.
func (t *regressionTree) fit(x [][]float64, y []float64, indices []int) {
	t.root = t.grow(x, y, indices, 1)
}

func (t *regressionTree) grow(x [][]float64, y []float64, indices []int, depth int) *treeNode {
	mean := meanAt(y, indices)
	if len(indices) < 2*t.minLeaf || (t.maxDepth > 0 && depth > t.maxDepth) || pureAt(y, indices) {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := t.bestSplit(x, y, indices)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	// Partition indices around the threshold; order within each side is
	// irrelevant to the fit.
	left := 0
	right := len(indices)
	for left < right {
		if x[indices[left]][feature] <= threshold {
			left++
			continue
		}
		right--
		indices[left], indices[right] = indices[right], indices[left]
	}

	if left < t.minLeaf || len(indices)-left < t.minLeaf {
		return &treeNode{leaf: true, value: mean}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(x, y, indices[:left], depth+1),
		right:     t.grow(x, y, indices[left:], depth+1),
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children.
func (t *regressionTree) bestSplit(x [][]float64, y []float64, indices []int) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)

	order := make([]int, len(indices))
	for feature := 0; feature < len(x[indices[0]]); feature++ {
		copy(order, indices)
		sort.Slice(order, func(i, j int) bool {
			return x[order[i]][feature] < x[order[j]][feature]
		})

		var leftSum, leftSq float64
		rightSum, rightSq := sumsAt(y, order)
		leftCount := 0

		for i := 0; i < len(order)-1; i++ {
			value := y[order[i]]
			leftSum += value
			leftSq += value * value
			rightSum -= value
			rightSq -= value * value
			leftCount++

			current := x[order[i]][feature]
			next := x[order[i+1]][feature]
			if current == next {
				continue
			}
			if leftCount < t.minLeaf || len(order)-leftCount < t.minLeaf {
				continue
			}

			rightCount := len(order) - leftCount
			score := (leftSq - leftSum*leftSum/float64(leftCount)) +
				(rightSq - rightSum*rightSum/float64(rightCount))
			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = (current + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *regressionTree) predictOne(row []float64) float64 {
	node := t.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func meanAt(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func sumsAt(y []float64, indices []int) (sum, sq float64) {
	for _, i := range indices {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return sum, sq
}

func pureAt(y []float64, indices []int) bool {
	first := y[indices[0]]
	for _, i := range indices[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}
