// Package alerts combines budget, anomaly, projection, and duplicate
// checks into one severity-classified report.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
)

// Defaults for the individual checks.
const (
	// DefaultAnomalyWindowDays is the trailing window the anomaly
	// check reviews.
	DefaultAnomalyWindowDays = 7
	// DefaultDuplicateWindow is how close two matching expenses must
	// be to count as a probable duplicate.
	DefaultDuplicateWindow = time.Hour
	// duplicateLookback bounds how far back duplicate pairs are
	// searched regardless of the pair window.
	duplicateLookback = 24 * time.Hour
	// amountTolerance is the currency tolerance for matching amounts.
	amountTolerance = 0.01
)

// Aggregator runs the alert checks and persists the merged report.
type Aggregator struct {
	ledger     service.Ledger
	detector   service.AnomalyChecker
	reportPath string

	// DuplicateWindow overrides the pair window for duplicate
	// detection. Zero means DefaultDuplicateWindow.
	DuplicateWindow time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewAggregator creates an aggregator persisting its latest report at
// reportPath.
func NewAggregator(ledger service.Ledger, detector service.AnomalyChecker, reportPath string) *Aggregator {
	return &Aggregator{
		ledger:     ledger,
		detector:   detector,
		reportPath: reportPath,
		now:        time.Now,
	}
}

// VerifyBudgets checks every active budget against the current month's
// spend. An alert fires when percent-used reaches the budget's threshold;
// severity is CRITICAL at or past 100%, WARNING below.
func (a *Aggregator) VerifyBudgets(ctx context.Context) ([]model.BudgetAlert, error) {
	budgets, err := a.ledger.Budgets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	txns, err := a.ledger.TransactionsByDateRange(ctx, monthStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load current-month transactions: %w", err)
	}

	spentByCategory := make(map[string]float64)
	for _, txn := range txns {
		if txn.IsExpense() {
			spentByCategory[txn.Category] += txn.Amount
		}
	}

	var alerts []model.BudgetAlert
	for _, budget := range budgets {
		spent := spentByCategory[budget.Category]
		var percentUsed float64
		if budget.MonthlyAmount > 0 {
			percentUsed = spent / budget.MonthlyAmount * 100
		}
		if percentUsed < budget.AlertThresholdPct {
			continue
		}

		severity := model.SeverityWarning
		if percentUsed >= 100 {
			severity = model.SeverityCritical
		}
		alerts = append(alerts, model.BudgetAlert{
			CreatedAt:   now,
			Severity:    severity,
			Category:    budget.Category,
			PercentUsed: round1(percentUsed),
			Spent:       round2(spent),
			Budget:      round2(budget.MonthlyAmount),
			Message:     fmt.Sprintf("You have used %.1f%% of the %s budget", percentUsed, budget.Category),
		})
	}
	return alerts, nil
}

// verifyAnomalies wraps the detector's recent flagged expenses as
// WARNING alerts. An untrained detector yields nothing; this check never
// triggers training.
func (a *Aggregator) verifyAnomalies(ctx context.Context, days int) ([]model.AnomalyAlert, error) {
	if a.detector == nil || !a.detector.IsTrained() {
		return nil, nil
	}

	anomalies, err := a.detector.Historical(ctx, days)
	if err != nil {
		slog.Error("Anomaly check failed", "error", err)
		return nil, nil
	}

	now := a.now()
	var alerts []model.AnomalyAlert
	for _, anomaly := range anomalies {
		alerts = append(alerts, model.AnomalyAlert{
			CreatedAt:  now,
			ExpenseAt:  anomaly.Date,
			Severity:   model.SeverityWarning,
			Category:   anomaly.Category,
			Amount:     round2(anomaly.Amount),
			Confidence: round1(anomaly.Confidence),
			Message:    anomaly.Message,
		})
	}
	return alerts, nil
}

// ProjectMonthEnd extrapolates income and expense at the observed
// per-day rate and warns when the projected end-of-month balance is
// negative. It returns nil when no alert is warranted, including on the
// last day of the month.
func (a *Aggregator) ProjectMonthEnd(ctx context.Context) (*model.ProjectionAlert, error) {
	now := a.now()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	daysElapsed := now.Day()
	daysRemaining := daysInMonth - daysElapsed
	if daysRemaining <= 0 {
		return nil, nil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	txns, err := a.ledger.TransactionsByDateRange(ctx, monthStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load current-month transactions: %w", err)
	}

	var income, expense float64
	for _, txn := range txns {
		switch {
		case txn.IsIncome():
			income += txn.Amount
		case txn.IsExpense():
			expense += txn.Amount
		}
	}

	projectedExpense := expense + expense/float64(daysElapsed)*float64(daysRemaining)
	projectedIncome := income + income/float64(daysElapsed)*float64(daysRemaining)
	projectedBalance := projectedIncome - projectedExpense
	if projectedBalance >= 0 {
		return nil, nil
	}

	return &model.ProjectionAlert{
		CreatedAt:        now,
		Severity:         model.SeverityWarning,
		DaysRemaining:    daysRemaining,
		SpentSoFar:       round2(expense),
		IncomeSoFar:      round2(income),
		ProjectedExpense: round2(projectedExpense),
		ProjectedIncome:  round2(projectedIncome),
		ProjectedBalance: round2(projectedBalance),
		Message:          fmt.Sprintf("Projected negative balance at month end ($%.2f)", projectedBalance),
	}, nil
}

// VerifyDuplicates compares every pair of expenses in the trailing 24
// hours and flags pairs with matching amount and category recorded
// within the pair window. Pairs are reported individually.
func (a *Aggregator) VerifyDuplicates(ctx context.Context) ([]model.DuplicateAlert, error) {
	window := a.DuplicateWindow
	if window == 0 {
		window = DefaultDuplicateWindow
	}

	now := a.now()
	txns, err := a.ledger.TransactionsByDateRange(ctx, now.Add(-duplicateLookback), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}

	var expenses []model.Transaction
	for _, txn := range txns {
		if txn.IsExpense() {
			expenses = append(expenses, txn)
		}
	}

	var alerts []model.DuplicateAlert
	for i, first := range expenses {
		for _, second := range expenses[i+1:] {
			if math.Abs(first.Amount-second.Amount) >= amountTolerance {
				continue
			}
			if first.Category != second.Category {
				continue
			}
			diff := first.Date.Sub(second.Date)
			if diff < 0 {
				diff = -diff
			}
			if diff > window {
				continue
			}
			alerts = append(alerts, model.DuplicateAlert{
				CreatedAt:   now,
				FirstAt:     first.Date,
				SecondAt:    second.Date,
				Severity:    model.SeverityInfo,
				Category:    first.Category,
				Amount:      round2(first.Amount),
				DiffMinutes: round1(diff.Minutes()),
				Message:     fmt.Sprintf("Possible duplicate expense: $%.2f in %s", first.Amount, first.Category),
			})
		}
	}
	return alerts, nil
}

// GenerateReport runs all four checks, merges their alerts, re-derives
// the per-severity tallies from the merged lists, and persists the
// result as the latest snapshot.
func (a *Aggregator) GenerateReport(ctx context.Context) (*model.AlertReport, error) {
	slog.Info("Generating alert report")

	budgets, err := a.VerifyBudgets(ctx)
	if err != nil {
		return nil, err
	}
	anomalies, err := a.verifyAnomalies(ctx, DefaultAnomalyWindowDays)
	if err != nil {
		return nil, err
	}
	projection, err := a.ProjectMonthEnd(ctx)
	if err != nil {
		return nil, err
	}
	duplicates, err := a.VerifyDuplicates(ctx)
	if err != nil {
		return nil, err
	}

	report := &model.AlertReport{
		GeneratedAt: a.now(),
		Budgets:     budgets,
		Anomalies:   anomalies,
		Projection:  projection,
		Duplicates:  duplicates,
	}
	report.TotalAlerts = len(budgets) + len(anomalies) + len(duplicates)
	if projection != nil {
		report.TotalAlerts++
	}

	for _, alert := range budgets {
		if alert.Severity == model.SeverityCritical {
			report.Levels.Critical++
		} else {
			report.Levels.Warning++
		}
	}
	report.Levels.Warning += len(anomalies)
	if projection != nil {
		report.Levels.Warning++
	}
	report.Levels.Info = len(duplicates)

	if err := a.save(report); err != nil {
		slog.Error("Failed to persist alert report", "path", a.reportPath, "error", err)
	}

	slog.Info("Alert report generated", "total", report.TotalAlerts)
	return report, nil
}

// LatestReport loads the most recently persisted report.
func (a *Aggregator) LatestReport() (*model.AlertReport, error) {
	data, err := os.ReadFile(a.reportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert report: %w", err)
	}
	var report model.AlertReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode alert report: %w", err)
	}
	return &report, nil
}

// CreateOrUpdateBudget upserts the budget for a category, reusing the
// ledger's default threshold when alertThresholdPct is zero.
func (a *Aggregator) CreateOrUpdateBudget(ctx context.Context, category string, monthlyAmount, alertThresholdPct float64) (*model.Budget, error) {
	budget, err := a.ledger.UpsertBudget(ctx, category, monthlyAmount, alertThresholdPct)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}
	slog.Info("Budget saved", "category", budget.Category, "monthly_amount", budget.MonthlyAmount, "threshold_pct", budget.AlertThresholdPct)
	return budget, nil
}

func (a *Aggregator) save(report *model.AlertReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode alert report: %w", err)
	}
	if err := os.WriteFile(a.reportPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write alert report: %w", err)
	}
	return nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
