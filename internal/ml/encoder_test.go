package ml

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoder(t *testing.T) {
	t.Run("assigns codes by sorted label order", func(t *testing.T) {
		enc := NewLabelEncoder()
		enc.Fit([]string{"Transporte", "Alimentación", "Transporte", "Vivienda"})

		code, err := enc.Transform("Alimentación")
		require.NoError(t, err)
		assert.Equal(t, 0, code)

		code, err = enc.Transform("Transporte")
		require.NoError(t, err)
		assert.Equal(t, 1, code)

		code, err = enc.Transform("Vivienda")
		require.NoError(t, err)
		assert.Equal(t, 2, code)
	})

	t.Run("unseen label is an input error", func(t *testing.T) {
		enc := NewLabelEncoder()
		enc.Fit([]string{"Alimentación"})

		_, err := enc.Transform("Tecnología")
		assert.ErrorIs(t, err, ErrUnknownLabel)
	})

	t.Run("transform before fit fails", func(t *testing.T) {
		enc := NewLabelEncoder()
		_, err := enc.Transform("Alimentación")
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("refit replaces the vocabulary", func(t *testing.T) {
		enc := NewLabelEncoder()
		enc.Fit([]string{"Alimentación", "Transporte"})
		enc.Fit([]string{"Vivienda"})

		_, err := enc.Transform("Alimentación")
		assert.ErrorIs(t, err, ErrUnknownLabel)

		code, err := enc.Transform("Vivienda")
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})

	t.Run("survives a JSON round-trip", func(t *testing.T) {
		enc := NewLabelEncoder()
		enc.Fit([]string{"Salud", "Ropa", "Educación"})

		data, err := json.Marshal(enc)
		require.NoError(t, err)

		var restored LabelEncoder
		require.NoError(t, json.Unmarshal(data, &restored))

		for _, label := range []string{"Salud", "Ropa", "Educación"} {
			want, err := enc.Transform(label)
			require.NoError(t, err)
			got, err := restored.Transform(label)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})
}

func TestStandardScaler(t *testing.T) {
	t.Run("standardizes to zero mean and unit variance", func(t *testing.T) {
		scaler := NewStandardScaler()
		require.NoError(t, scaler.Fit([][]float64{{1, 100}, {2, 200}, {3, 300}}))

		scaled, err := scaler.Transform([]float64{2, 200})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, scaled[0], 1e-9)
		assert.InDelta(t, 0.0, scaled[1], 1e-9)

		scaled, err = scaler.Transform([]float64{3, 100})
		require.NoError(t, err)
		assert.InDelta(t, 1.2247, scaled[0], 0.001) // (3-2)/popstd([1,2,3])
		assert.InDelta(t, -1.2247, scaled[1], 0.001)
	})

	t.Run("constant column passes through centered", func(t *testing.T) {
		scaler := NewStandardScaler()
		require.NoError(t, scaler.Fit([][]float64{{5}, {5}, {5}}))

		scaled, err := scaler.Transform([]float64{7})
		require.NoError(t, err)
		assert.InDelta(t, 2.0, scaled[0], 1e-9)
	})

	t.Run("rejects dimension mismatch", func(t *testing.T) {
		scaler := NewStandardScaler()
		require.NoError(t, scaler.Fit([][]float64{{1, 2}, {3, 4}}))

		_, err := scaler.Transform([]float64{1})
		assert.Error(t, err)
	})

	t.Run("survives a JSON round-trip", func(t *testing.T) {
		scaler := NewStandardScaler()
		require.NoError(t, scaler.Fit([][]float64{{1, 10}, {2, 20}, {3, 30}}))

		data, err := json.Marshal(scaler)
		require.NoError(t, err)

		var restored StandardScaler
		require.NoError(t, json.Unmarshal(data, &restored))

		want, err := scaler.Transform([]float64{2.5, 25})
		require.NoError(t, err)
		got, err := restored.Transform([]float64{2.5, 25})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
