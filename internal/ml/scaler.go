package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes features to zero mean and unit variance.
// A constant column (zero variance) passes through centered but unscaled.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit learns per-column mean and population standard deviation from the
// sample matrix, replacing any previous state.
func (s *StandardScaler) Fit(samples [][]float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("scaler fit: no samples")
	}

	cols := len(samples[0])
	s.Means = make([]float64, cols)
	s.Stds = make([]float64, cols)

	column := make([]float64, len(samples))
	for j := 0; j < cols; j++ {
		for i, row := range samples {
			column[i] = row[j]
		}
		s.Means[j] = stat.Mean(column, nil)
		std := stat.PopStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.Stds[j] = std
	}

	return nil
}

// Transform standardizes a single sample using the fitted statistics.
func (s *StandardScaler) Transform(sample []float64) ([]float64, error) {
	if len(s.Means) == 0 {
		return nil, ErrNotFitted
	}
	if len(sample) != len(s.Means) {
		return nil, fmt.Errorf("scaler transform: expected %d features, got %d", len(s.Means), len(sample))
	}

	out := make([]float64, len(sample))
	for j, v := range sample {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}

// TransformBatch standardizes a batch of samples.
func (s *StandardScaler) TransformBatch(samples [][]float64) ([][]float64, error) {
	out := make([][]float64, len(samples))
	for i, sample := range samples {
		scaled, err := s.Transform(sample)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
