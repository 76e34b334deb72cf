package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/dinero/internal/model"
)

// ErrBudgetNotFound is returned when no budget exists for a category.
var ErrBudgetNotFound = errors.New("budget not found")

// UpsertBudget creates or replaces the budget for a category. A budget is
// keyed on its category: writing a second budget for the same category
// updates the existing row and reactivates it.
func (s *SQLiteLedger) UpsertBudget(ctx context.Context, category string, monthlyAmount, alertThresholdPct float64) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if alertThresholdPct == 0 {
		alertThresholdPct = model.DefaultAlertThresholdPct
	}
	if err := validateBudget(category, monthlyAmount, alertThresholdPct); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_amount, alert_threshold_pct, active)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(category) DO UPDATE SET
			monthly_amount = excluded.monthly_amount,
			alert_threshold_pct = excluded.alert_threshold_pct,
			active = 1,
			updated_at = CURRENT_TIMESTAMP
	`, category, monthlyAmount, alertThresholdPct)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit budget: %w", err)
	}

	slog.Info("Budget saved",
		"category", category,
		"monthly_amount", monthlyAmount,
		"alert_threshold_pct", alertThresholdPct)

	return s.BudgetByCategory(ctx, category)
}

// Budgets returns all budgets, optionally restricted to active ones.
func (s *SQLiteLedger) Budgets(ctx context.Context, activeOnly bool) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, category, monthly_amount, alert_threshold_pct, active, created_at, updated_at
		FROM budgets
	`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY category`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *budget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	return budgets, nil
}

// BudgetByCategory returns the budget for a category, or ErrBudgetNotFound.
func (s *SQLiteLedger) BudgetByCategory(ctx context.Context, category string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, monthly_amount, alert_threshold_pct, active, created_at, updated_at
		FROM budgets
		WHERE category = ?
	`, category)

	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrBudgetNotFound, category)
		}
		return nil, err
	}
	return budget, nil
}

// scanner abstracts sql.Row and sql.Rows for single-row scans.
type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(row scanner) (*model.Budget, error) {
	var budget model.Budget
	var active int

	err := row.Scan(
		&budget.ID,
		&budget.Category,
		&budget.MonthlyAmount,
		&budget.AlertThresholdPct,
		&active,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}

	budget.Active = active != 0
	return &budget, nil
}
