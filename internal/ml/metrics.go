package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MAE returns the mean absolute error between truth and predictions.
func MAE(truth, predicted []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var total float64
	for i := range truth {
		total += math.Abs(truth[i] - predicted[i])
	}
	return total / float64(len(truth))
}

// RMSE returns the root mean squared error between truth and predictions.
func RMSE(truth, predicted []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	var total float64
	for i := range truth {
		d := truth[i] - predicted[i]
		total += d * d
	}
	return math.Sqrt(total / float64(len(truth)))
}

// R2 returns the coefficient of determination. A model predicting the
// mean scores 0; a constant truth vector with imperfect predictions
// scores 0 by convention here rather than dividing by zero.
func R2(truth, predicted []float64) float64 {
	if len(truth) == 0 {
		return 0
	}

	mean := stat.Mean(truth, nil)
	var residual, total float64
	for i := range truth {
		d := truth[i] - predicted[i]
		residual += d * d
		t := truth[i] - mean
		total += t * t
	}
	if total == 0 {
		return 0
	}
	return 1 - residual/total
}

// TrainTestSplit deterministically shuffles and splits samples into
// train and test sets. testFraction is clamped so both sides keep at
// least one sample.
func TrainTestSplit(samples [][]float64, targets []float64, testFraction float64, seed int64) (trainX, testX [][]float64, trainY, testY []float64) {
	n := len(samples)
	perm := newRand(seed).Perm(n)

	testSize := int(math.Round(float64(n) * testFraction))
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	for i, idx := range perm {
		if i < testSize {
			testX = append(testX, samples[idx])
			testY = append(testY, targets[idx])
		} else {
			trainX = append(trainX, samples[idx])
			trainY = append(trainY, targets[idx])
		}
	}
	return trainX, testX, trainY, testY
}
