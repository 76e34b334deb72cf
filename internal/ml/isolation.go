package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DefaultContamination is the fraction of the training population the
// isolation forest flags as outliers.
const DefaultContamination = 0.1

// isoNode is a single node of an isolation tree. External nodes remember
// how many training samples they hold, which feeds the path-length
// estimate for early-terminated branches.
type isoNode struct {
	Left    *isoNode `json:"left,omitempty"`
	Right   *isoNode `json:"right,omitempty"`
	Split   float64  `json:"split"`
	Feature int      `json:"feature"`
	Size    int      `json:"size"`
	Leaf    bool     `json:"leaf"`
}

// IsolationForest is an unsupervised outlier ensemble: anomalies isolate
// in fewer random splits than inliers. Scores follow the convention that
// higher is more normal; samples scoring below the fitted offset are
// classified as outliers, and the offset is chosen so the configured
// contamination fraction of the training set is flagged.
type IsolationForest struct {
	Trees         []*isoNode `json:"trees"`
	NumTrees      int        `json:"num_trees"`
	SubsampleSize int        `json:"subsample_size"`
	Contamination float64    `json:"contamination"`
	Offset        float64    `json:"offset"`
	Seed          int64      `json:"seed"`
}

// NewIsolationForest creates an unfitted isolation forest.
func NewIsolationForest(numTrees int, contamination float64, seed int64) *IsolationForest {
	if contamination <= 0 || contamination >= 1 {
		contamination = DefaultContamination
	}
	return &IsolationForest{
		NumTrees:      numTrees,
		Contamination: contamination,
		Seed:          seed,
	}
}

// Fit trains the forest on the sample matrix, replacing any previous
// state, and fixes the outlier threshold at the contamination quantile
// of the training scores.
func (f *IsolationForest) Fit(samples [][]float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("isolation forest fit: no samples")
	}

	n := len(samples)
	f.SubsampleSize = n
	if f.SubsampleSize > 256 {
		f.SubsampleSize = 256
	}
	maxDepth := int(math.Ceil(math.Log2(float64(f.SubsampleSize))))
	if maxDepth < 1 {
		maxDepth = 1
	}

	rng := newRand(f.Seed)
	f.Trees = make([]*isoNode, f.NumTrees)
	for t := 0; t < f.NumTrees; t++ {
		subsample := make([][]float64, f.SubsampleSize)
		for i := range subsample {
			subsample[i] = samples[rng.Intn(n)]
		}
		f.Trees[t] = buildIsolationTree(subsample, 0, maxDepth, rng)
	}

	// Threshold at the contamination quantile of training scores
	scores := make([]float64, n)
	for i, sample := range samples {
		score, err := f.ScoreSamples(sample)
		if err != nil {
			return err
		}
		scores[i] = score
	}
	sort.Float64s(scores)
	idx := int(math.Floor(f.Contamination * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	f.Offset = scores[idx]

	return nil
}

// ScoreSamples returns the anomaly score of one sample, in (-1, 0).
// Scores closer to -1 indicate stronger anomalies.
func (f *IsolationForest) ScoreSamples(sample []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}

	var totalPath float64
	for _, tree := range f.Trees {
		totalPath += pathLength(tree, sample, 0)
	}
	meanPath := totalPath / float64(len(f.Trees))

	return -math.Exp2(-meanPath / averagePathLength(f.SubsampleSize)), nil
}

// Predict classifies one sample: true when it scores below the fitted
// outlier threshold.
func (f *IsolationForest) Predict(sample []float64) (bool, float64, error) {
	score, err := f.ScoreSamples(sample)
	if err != nil {
		return false, 0, err
	}
	return score < f.Offset, score, nil
}

// CountOutliers returns how many of the given samples classify as
// outliers.
func (f *IsolationForest) CountOutliers(samples [][]float64) (int, error) {
	var flagged int
	for _, sample := range samples {
		isOutlier, _, err := f.Predict(sample)
		if err != nil {
			return 0, err
		}
		if isOutlier {
			flagged++
		}
	}
	return flagged, nil
}

// buildIsolationTree grows a tree by uniformly random splits until the
// depth limit or sample exhaustion.
func buildIsolationTree(samples [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(samples) <= 1 {
		return &isoNode{Leaf: true, Size: len(samples)}
	}

	cols := len(samples[0])

	// Pick a feature with spread; constant nodes terminate early
	candidates := rng.Perm(cols)
	feature := -1
	var lo, hi float64
	for _, j := range candidates {
		lo, hi = featureRange(samples, j)
		if hi > lo {
			feature = j
			break
		}
	}
	if feature < 0 {
		return &isoNode{Leaf: true, Size: len(samples)}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, sample := range samples {
		if sample[feature] < split {
			left = append(left, sample)
		} else {
			right = append(right, sample)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoNode{Leaf: true, Size: len(samples)}
	}

	return &isoNode{
		Feature: feature,
		Split:   split,
		Left:    buildIsolationTree(left, depth+1, maxDepth, rng),
		Right:   buildIsolationTree(right, depth+1, maxDepth, rng),
	}
}

// pathLength traverses the tree, crediting early-terminated external
// nodes with the expected remaining depth for their size.
func pathLength(node *isoNode, sample []float64, depth int) float64 {
	if node.Leaf {
		return float64(depth) + averagePathLength(node.Size)
	}
	if sample[node.Feature] < node.Split {
		return pathLength(node.Left, sample, depth+1)
	}
	return pathLength(node.Right, sample, depth+1)
}

// averagePathLength is c(n): the expected path length of an unsuccessful
// BST search over n samples.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}

func featureRange(samples [][]float64, feature int) (lo, hi float64) {
	lo, hi = samples[0][feature], samples[0][feature]
	for _, sample := range samples[1:] {
		v := sample[feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
