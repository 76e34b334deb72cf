package ml

import (
	"fmt"
	"math/rand"
	"sort"
)

// DefaultSeed is the fixed seed used for reproducible training runs.
const DefaultSeed = 42

// TreeNode is a single node of a regression tree. Leaves carry the mean
// target value of the training samples that reached them.
type TreeNode struct {
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Feature   int       `json:"feature"`
	Leaf      bool      `json:"leaf"`
}

// predict walks the tree for one sample.
func (n *TreeNode) predict(sample []float64) float64 {
	node := n
	for !node.Leaf {
		if sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// RandomForest is a bootstrap-aggregated ensemble of regression trees.
type RandomForest struct {
	Trees           []*TreeNode `json:"trees"`
	NumTrees        int         `json:"num_trees"`
	MaxDepth        int         `json:"max_depth"`
	MinSamplesSplit int         `json:"min_samples_split"`
	Seed            int64       `json:"seed"`
}

// NewRandomForest creates an unfitted forest with the given shape.
func NewRandomForest(numTrees, maxDepth int, seed int64) *RandomForest {
	return &RandomForest{
		NumTrees:        numTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		Seed:            seed,
	}
}

// Fit trains the forest on the sample matrix, replacing any previous
// state. Each tree sees a bootstrap resample of the rows.
func (f *RandomForest) Fit(samples [][]float64, targets []float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("forest fit: no samples")
	}
	if len(samples) != len(targets) {
		return fmt.Errorf("forest fit: %d samples but %d targets", len(samples), len(targets))
	}

	rng := newRand(f.Seed)
	f.Trees = make([]*TreeNode, f.NumTrees)

	n := len(samples)
	for t := 0; t < f.NumTrees; t++ {
		bootX := make([][]float64, n)
		bootY := make([]float64, n)
		for i := 0; i < n; i++ {
			idx := rng.Intn(n)
			bootX[i] = samples[idx]
			bootY[i] = targets[idx]
		}
		f.Trees[t] = buildRegressionTree(bootX, bootY, 0, f.MaxDepth, f.MinSamplesSplit)
	}

	return nil
}

// Predict returns the forest's prediction for one sample: the mean of
// the per-tree predictions.
func (f *RandomForest) Predict(sample []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}

	var total float64
	for _, tree := range f.Trees {
		total += tree.predict(sample)
	}
	return total / float64(len(f.Trees)), nil
}

// PredictBatch predicts a batch of samples.
func (f *RandomForest) PredictBatch(samples [][]float64) ([]float64, error) {
	out := make([]float64, len(samples))
	for i, sample := range samples {
		p, err := f.Predict(sample)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// buildRegressionTree grows a tree by recursive variance-minimizing
// binary splits.
func buildRegressionTree(samples [][]float64, targets []float64, depth, maxDepth, minSplit int) *TreeNode {
	if depth >= maxDepth || len(samples) < minSplit || constant(targets) {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	feature, threshold, ok := bestSplit(samples, targets)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, sample := range samples {
		if sample[feature] <= threshold {
			leftX = append(leftX, sample)
			leftY = append(leftY, targets[i])
		} else {
			rightX = append(rightX, sample)
			rightY = append(rightY, targets[i])
		}
	}
	if len(leftX) == 0 || len(rightX) == 0 {
		return &TreeNode{Leaf: true, Value: mean(targets)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildRegressionTree(leftX, leftY, depth+1, maxDepth, minSplit),
		Right:     buildRegressionTree(rightX, rightY, depth+1, maxDepth, minSplit),
	}
}

// bestSplit scans every feature for the split minimizing the weighted
// sum of child variances, using prefix sums over sorted feature values.
func bestSplit(samples [][]float64, targets []float64) (feature int, threshold float64, ok bool) {
	n := len(samples)
	cols := len(samples[0])

	bestScore := totalSquaredError(targets)
	found := false

	order := make([]int, n)
	for j := 0; j < cols; j++ {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return samples[order[a]][j] < samples[order[b]][j]
		})

		var leftSum, leftSq float64
		totalSum, totalSq := sumAndSquares(targets)

		for i := 0; i < n-1; i++ {
			y := targets[order[i]]
			leftSum += y
			leftSq += y * y

			// Can't split between equal feature values
			cur := samples[order[i]][j]
			next := samples[order[i+1]][j]
			if cur == next {
				continue
			}

			leftN := float64(i + 1)
			rightN := float64(n - i - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			score := (leftSq - leftSum*leftSum/leftN) + (rightSq - rightSum*rightSum/rightN)
			if score < bestScore {
				bestScore = score
				feature = j
				threshold = (cur + next) / 2
				found = true
			}
		}
	}

	return feature, threshold, found
}

func sumAndSquares(xs []float64) (sum, squares float64) {
	for _, x := range xs {
		sum += x
		squares += x * x
	}
	return sum, squares
}

func totalSquaredError(xs []float64) float64 {
	sum, squares := sumAndSquares(xs)
	n := float64(len(xs))
	return squares - sum*sum/n
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var total float64
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func constant(xs []float64) bool {
	for _, x := range xs {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
