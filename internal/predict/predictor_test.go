package predict

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/testutil"
)

func newTestPredictor(t *testing.T, ledger *testutil.MemoryLedger) *Predictor {
	t.Helper()
	return NewPredictor(ledger, filepath.Join(t.TempDir(), "predictor.json"))
}

// seedExpenses inserts a deterministic expense history with distinct
// amount levels per category.
func seedExpenses(t *testing.T, ledger *testutil.MemoryLedger, count int) {
	t.Helper()

	base := map[string]float64{
		"Alimentación": 25,
		"Transporte":   10,
		"Ocio":         60,
	}
	categories := []string{"Alimentación", "Transporte", "Ocio"}
	rng := rand.New(rand.NewSource(7))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		category := categories[i%len(categories)]
		txn := &model.Transaction{
			Date:          start.AddDate(0, 0, i%120),
			Kind:          model.KindExpense,
			Category:      category,
			PaymentMethod: "Efectivo",
			Amount:        base[category] + rng.Float64()*5,
		}
		_, err := ledger.InsertTransaction(context.Background(), txn)
		require.NoError(t, err)
	}
}

func TestTrainRequiresEnoughHistory(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, MinTrainingSamples-1)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())

	require.ErrorIs(t, err, ErrInsufficientData)
	assert.False(t, predictor.IsTrained())
}

func TestTrainFitsAndPersists(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	result, err := predictor.Train(context.Background())
	require.NoError(t, err)

	assert.True(t, predictor.IsTrained())
	assert.Equal(t, 96, result.TrainSamples)
	assert.Equal(t, 24, result.TestSamples)
	assert.GreaterOrEqual(t, result.MAE, 0.0)
	assert.GreaterOrEqual(t, result.RMSE, result.MAE)

	_, err = os.Stat(predictor.modelPath)
	assert.NoError(t, err, "training should write a model snapshot")
}

func TestPredictExpenseSeparatesCategories(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 150)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())
	require.NoError(t, err)

	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	transport, err := predictor.PredictExpense(context.Background(), Request{Category: "Transporte", Date: date})
	require.NoError(t, err)
	leisure, err := predictor.PredictExpense(context.Background(), Request{Category: "Ocio", Date: date})
	require.NoError(t, err)

	assert.Greater(t, leisure, transport, "leisure expenses are consistently larger in the training data")
	assert.InDelta(t, 12.5, transport, 10)
	assert.InDelta(t, 62.5, leisure, 10)
}

func TestPredictExpenseIsDeterministic(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())
	require.NoError(t, err)

	req := Request{Category: "Alimentación", Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	first, err := predictor.PredictExpense(context.Background(), req)
	require.NoError(t, err)
	second, err := predictor.PredictExpense(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPredictExpenseUnknownCategory(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())
	require.NoError(t, err)

	_, err = predictor.PredictExpense(context.Background(), Request{Category: "Mascotas"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestPredictExpenseNotTrained(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	predictor.AutoTrain = false

	_, err := predictor.PredictExpense(context.Background(), Request{Category: "Transporte"})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestPredictExpenseAutoTrains(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	amount, err := predictor.PredictExpense(context.Background(), Request{Category: "Transporte"})
	require.NoError(t, err)

	assert.True(t, predictor.IsTrained())
	assert.Greater(t, amount, 0.0)
}

func TestLoadRestoresSnapshot(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	trained := newTestPredictor(t, ledger)
	_, err := trained.Train(context.Background())
	require.NoError(t, err)

	req := Request{Category: "Ocio", Date: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)}
	want, err := trained.PredictExpense(context.Background(), req)
	require.NoError(t, err)

	restored := NewPredictor(ledger, trained.modelPath)
	restored.AutoTrain = false
	require.NoError(t, restored.Load())

	got, err := restored.PredictExpense(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPredictMonthCoversObservedCategories(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 150)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())
	require.NoError(t, err)

	forecast, err := predictor.PredictMonth(context.Background(), 7, 2026)
	require.NoError(t, err)

	assert.Equal(t, 7, forecast.Month)
	assert.Equal(t, 2026, forecast.Year)
	require.Len(t, forecast.ByCategory, 3)

	var sum float64
	for _, amount := range forecast.ByCategory {
		assert.Greater(t, amount, 0.0)
		sum += amount
	}
	assert.InDelta(t, sum, forecast.Total, 0.1)
}

func TestPredictMonthDefaultsToNextMonth(t *testing.T) {
	ledger := testutil.NewMemoryLedger()
	seedExpenses(t, ledger, 120)

	predictor := newTestPredictor(t, ledger)
	_, err := predictor.Train(context.Background())
	require.NoError(t, err)

	forecast, err := predictor.PredictMonth(context.Background(), 0, 0)
	require.NoError(t, err)

	now := time.Now()
	wantMonth, wantYear := int(now.Month())+1, now.Year()
	if now.Month() == time.December {
		wantMonth, wantYear = 1, now.Year()+1
	}
	assert.Equal(t, wantMonth, forecast.Month)
	assert.Equal(t, wantYear, forecast.Year)
}
