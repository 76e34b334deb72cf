package alerts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/testutil"
)

// stubDetector feeds canned anomalies into the aggregator.
type stubDetector struct {
	anomalies []service.HistoricalAnomaly
	trained   bool
}

func (s *stubDetector) IsTrained() bool { return s.trained }

func (s *stubDetector) Historical(_ context.Context, _ int) ([]service.HistoricalAnomaly, error) {
	return s.anomalies, nil
}

func newTestAggregator(t *testing.T, ledger *testutil.MemoryLedger, detector service.AnomalyChecker, now time.Time) *Aggregator {
	t.Helper()
	agg := NewAggregator(ledger, detector, filepath.Join(t.TempDir(), "alerts.json"))
	agg.now = func() time.Time { return now }
	return agg
}

func addExpense(t *testing.T, ledger *testutil.MemoryLedger, date time.Time, category string, amount float64) {
	t.Helper()
	_, err := ledger.InsertTransaction(context.Background(), &model.Transaction{
		Date:          date,
		Kind:          model.KindExpense,
		Category:      category,
		PaymentMethod: "Efectivo",
		Amount:        amount,
	})
	require.NoError(t, err)
}

func addIncome(t *testing.T, ledger *testutil.MemoryLedger, date time.Time, amount float64) {
	t.Helper()
	_, err := ledger.InsertTransaction(context.Background(), &model.Transaction{
		Date:          date,
		Kind:          model.KindIncome,
		Category:      "Salario",
		PaymentMethod: "Transferencia",
		Amount:        amount,
	})
	require.NoError(t, err)
}

func TestVerifyBudgetsThresholds(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.UpsertBudget(ctx, "Alimentación", 1000, 80)
	require.NoError(t, err)
	_, err = ledger.UpsertBudget(ctx, "Transporte", 1000, 80)
	require.NoError(t, err)
	_, err = ledger.UpsertBudget(ctx, "Ocio", 1000, 80)
	require.NoError(t, err)

	addExpense(t, ledger, now.AddDate(0, 0, -3), "Alimentación", 850)
	addExpense(t, ledger, now.AddDate(0, 0, -2), "Transporte", 1000)
	addExpense(t, ledger, now.AddDate(0, 0, -1), "Ocio", 500)

	agg := newTestAggregator(t, ledger, nil, now)
	alerts, err := agg.VerifyBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2, "the 50% category stays below its threshold")

	byCategory := make(map[string]model.BudgetAlert)
	for _, alert := range alerts {
		byCategory[alert.Category] = alert
	}

	food := byCategory["Alimentación"]
	assert.Equal(t, model.SeverityWarning, food.Severity)
	assert.Equal(t, 85.0, food.PercentUsed)
	assert.Equal(t, 850.0, food.Spent)

	transport := byCategory["Transporte"]
	assert.Equal(t, model.SeverityCritical, transport.Severity)
	assert.Equal(t, 100.0, transport.PercentUsed)
}

func TestVerifyBudgetsIgnoresLastMonth(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.UpsertBudget(ctx, "Alimentación", 100, 80)
	require.NoError(t, err)
	addExpense(t, ledger, time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), "Alimentación", 500)

	agg := newTestAggregator(t, ledger, nil, now)
	alerts, err := agg.VerifyBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestVerifyBudgetsSkipsInactive(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.UpsertBudget(ctx, "Alimentación", 100, 80)
	require.NoError(t, err)
	ledger.DeactivateBudget("Alimentación")
	addExpense(t, ledger, now.AddDate(0, 0, -1), "Alimentación", 500)

	agg := newTestAggregator(t, ledger, nil, now)
	alerts, err := agg.VerifyBudgets(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestProjectMonthEndNegativeBalance(t *testing.T) {
	// Day 10 of a 30-day month with $200 spent and no income.
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()

	addExpense(t, ledger, now.AddDate(0, 0, -5), "Alimentación", 120)
	addExpense(t, ledger, now.AddDate(0, 0, -2), "Transporte", 80)

	agg := newTestAggregator(t, ledger, nil, now)
	alert, err := agg.ProjectMonthEnd(context.Background())
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.Equal(t, model.SeverityWarning, alert.Severity)
	assert.Equal(t, 20, alert.DaysRemaining)
	assert.Equal(t, 200.0, alert.SpentSoFar)
	assert.Equal(t, 600.0, alert.ProjectedExpense)
	assert.Equal(t, -600.0, alert.ProjectedBalance)
}

func TestProjectMonthEndPositiveBalance(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()

	addIncome(t, ledger, now.AddDate(0, 0, -9), 3000)
	addExpense(t, ledger, now.AddDate(0, 0, -5), "Alimentación", 200)

	agg := newTestAggregator(t, ledger, nil, now)
	alert, err := agg.ProjectMonthEnd(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestProjectMonthEndLastDay(t *testing.T) {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	addExpense(t, ledger, now.AddDate(0, 0, -5), "Alimentación", 500)

	agg := newTestAggregator(t, ledger, nil, now)
	alert, err := agg.ProjectMonthEnd(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert, "no projection on the last day of the month")
}

func TestVerifyDuplicatesWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()

	// 20 minutes apart: duplicate.
	addExpense(t, ledger, now.Add(-2*time.Hour), "Alimentación", 45.50)
	addExpense(t, ledger, now.Add(-2*time.Hour+20*time.Minute), "Alimentación", 45.50)
	// 90 minutes apart: outside the window.
	addExpense(t, ledger, now.Add(-8*time.Hour), "Transporte", 12)
	addExpense(t, ledger, now.Add(-8*time.Hour+90*time.Minute), "Transporte", 12)
	// Same amount, different category.
	addExpense(t, ledger, now.Add(-1*time.Hour), "Ocio", 45.50)

	agg := newTestAggregator(t, ledger, nil, now)
	alerts, err := agg.VerifyDuplicates(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, model.SeverityInfo, alert.Severity)
	assert.Equal(t, "Alimentación", alert.Category)
	assert.Equal(t, 45.50, alert.Amount)
	assert.Equal(t, 20.0, alert.DiffMinutes)
}

func TestVerifyDuplicatesIgnoresOldPairs(t *testing.T) {
	now := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()

	addExpense(t, ledger, now.AddDate(0, 0, -2), "Alimentación", 45.50)
	addExpense(t, ledger, now.AddDate(0, 0, -2).Add(10*time.Minute), "Alimentación", 45.50)

	agg := newTestAggregator(t, ledger, nil, now)
	alerts, err := agg.VerifyDuplicates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestGenerateReportMergesAndPersists(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	ctx := context.Background()

	_, err := ledger.UpsertBudget(ctx, "Alimentación", 100, 80)
	require.NoError(t, err)
	addExpense(t, ledger, now.AddDate(0, 0, -3), "Alimentación", 150)

	addExpense(t, ledger, now.Add(-2*time.Hour), "Transporte", 12)
	addExpense(t, ledger, now.Add(-2*time.Hour+15*time.Minute), "Transporte", 12)

	detector := &stubDetector{
		trained: true,
		anomalies: []service.HistoricalAnomaly{{
			Date:       now.AddDate(0, 0, -1),
			Category:   "Ocio",
			Amount:     400,
			Confidence: 42.5,
			Message:    "Amount is 8.0x the category average of $50.00",
		}},
	}

	agg := newTestAggregator(t, ledger, detector, now)
	report, err := agg.GenerateReport(ctx)
	require.NoError(t, err)

	// One CRITICAL budget, one anomaly, one projection, one duplicate.
	assert.Equal(t, 4, report.TotalAlerts)
	assert.Equal(t, 1, report.Levels.Critical)
	assert.Equal(t, 2, report.Levels.Warning)
	assert.Equal(t, 1, report.Levels.Info)
	require.NotNil(t, report.Projection)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "Ocio", report.Anomalies[0].Category)

	// The snapshot on disk matches the returned report.
	data, err := os.ReadFile(agg.reportPath)
	require.NoError(t, err)
	var persisted model.AlertReport
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, report.TotalAlerts, persisted.TotalAlerts)
	assert.Equal(t, report.Levels, persisted.Levels)

	loaded, err := agg.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, report.TotalAlerts, loaded.TotalAlerts)
}

func TestGenerateReportUntrainedDetectorIsSilent(t *testing.T) {
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	ledger := testutil.NewMemoryLedger()
	addIncome(t, ledger, now.AddDate(0, 0, -5), 5000)

	agg := newTestAggregator(t, ledger, &stubDetector{trained: false}, now)
	report, err := agg.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TotalAlerts)
	assert.Empty(t, report.Anomalies)
}
