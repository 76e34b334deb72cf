package ml

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterData generates a deterministic 2D blob around the origin.
func clusterData(n int) [][]float64 {
	rng := rand.New(rand.NewSource(7))
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
	}
	return samples
}

func TestIsolationForest(t *testing.T) {
	t.Run("flags roughly the contamination fraction of training data", func(t *testing.T) {
		samples := clusterData(300)

		forest := NewIsolationForest(100, 0.1, DefaultSeed)
		require.NoError(t, forest.Fit(samples))

		flagged, err := forest.CountOutliers(samples)
		require.NoError(t, err)

		fraction := float64(flagged) / float64(len(samples))
		assert.InDelta(t, 0.1, fraction, 0.05)
	})

	t.Run("a distant point scores as a stronger anomaly", func(t *testing.T) {
		samples := clusterData(200)

		forest := NewIsolationForest(100, 0.1, DefaultSeed)
		require.NoError(t, forest.Fit(samples))

		inlierScore, err := forest.ScoreSamples([]float64{0.1, -0.2})
		require.NoError(t, err)
		outlierScore, err := forest.ScoreSamples([]float64{25, 25})
		require.NoError(t, err)

		assert.Less(t, outlierScore, inlierScore)

		isOutlier, _, err := forest.Predict([]float64{25, 25})
		require.NoError(t, err)
		assert.True(t, isOutlier)
	})

	t.Run("scores stay in the expected range", func(t *testing.T) {
		samples := clusterData(100)

		forest := NewIsolationForest(50, 0.1, DefaultSeed)
		require.NoError(t, forest.Fit(samples))

		for _, sample := range samples[:10] {
			score, err := forest.ScoreSamples(sample)
			require.NoError(t, err)
			assert.Greater(t, score, -1.0)
			assert.Less(t, score, 0.0)
		}
	})

	t.Run("same seed trains the same model", func(t *testing.T) {
		samples := clusterData(150)

		one := NewIsolationForest(50, 0.1, DefaultSeed)
		require.NoError(t, one.Fit(samples))
		two := NewIsolationForest(50, 0.1, DefaultSeed)
		require.NoError(t, two.Fit(samples))

		probe := []float64{1.5, -0.5}
		s1, err := one.ScoreSamples(probe)
		require.NoError(t, err)
		s2, err := two.ScoreSamples(probe)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
		assert.Equal(t, one.Offset, two.Offset)
	})

	t.Run("score before fit fails", func(t *testing.T) {
		forest := NewIsolationForest(50, 0.1, DefaultSeed)
		_, err := forest.ScoreSamples([]float64{1, 2})
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("survives a JSON round-trip", func(t *testing.T) {
		samples := clusterData(150)

		forest := NewIsolationForest(50, 0.1, DefaultSeed)
		require.NoError(t, forest.Fit(samples))

		data, err := json.Marshal(forest)
		require.NoError(t, err)

		var restored IsolationForest
		require.NoError(t, json.Unmarshal(data, &restored))

		probe := []float64{0.4, 0.9}
		want, err := forest.ScoreSamples(probe)
		require.NoError(t, err)
		got, err := restored.ScoreSamples(probe)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, forest.Offset, restored.Offset)
	})
}
