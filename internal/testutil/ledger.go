// Package testutil provides shared test fixtures for the dinero project.
package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/storage"
)

// MemoryLedger is an in-memory service.Ledger for tests that don't need
// SQLite. It mirrors the ledger contract: queries return transactions
// newest first and budget writes are upserts keyed on category.
type MemoryLedger struct {
	budgets map[string]*model.Budget
	txns    []model.Transaction
	nextID  int64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		budgets: make(map[string]*model.Budget),
		nextID:  1,
	}
}

var _ service.Ledger = (*MemoryLedger)(nil)

// InsertTransaction appends a transaction and returns its assigned ID.
func (m *MemoryLedger) InsertTransaction(_ context.Context, txn *model.Transaction) (int64, error) {
	stored := *txn
	stored.ID = m.nextID
	m.nextID++
	m.txns = append(m.txns, stored)
	return stored.ID, nil
}

// Transactions returns every transaction, newest first.
func (m *MemoryLedger) Transactions(_ context.Context) ([]model.Transaction, error) {
	return sortedCopy(m.txns), nil
}

// TransactionsByDateRange returns transactions within [start, end], newest first.
func (m *MemoryLedger) TransactionsByDateRange(_ context.Context, start, end time.Time) ([]model.Transaction, error) {
	if start.After(end) {
		return nil, storage.ErrInvalidDateRange
	}

	var out []model.Transaction
	for _, txn := range m.txns {
		if !txn.Date.Before(start) && !txn.Date.After(end) {
			out = append(out, txn)
		}
	}
	return sortedCopy(out), nil
}

// TransactionsByKind returns transactions of the given kind, newest first.
func (m *MemoryLedger) TransactionsByKind(_ context.Context, kind model.TransactionKind) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, txn := range m.txns {
		if txn.Kind == kind {
			out = append(out, txn)
		}
	}
	return sortedCopy(out), nil
}

// DeleteTransaction removes a transaction by ID.
func (m *MemoryLedger) DeleteTransaction(_ context.Context, id int64) (bool, error) {
	for i, txn := range m.txns {
		if txn.ID == id {
			m.txns = append(m.txns[:i], m.txns[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// CountTransactions returns the number of stored transactions.
func (m *MemoryLedger) CountTransactions(_ context.Context) (int, error) {
	return len(m.txns), nil
}

// UpsertBudget creates or replaces the budget for a category.
func (m *MemoryLedger) UpsertBudget(_ context.Context, category string, monthlyAmount, alertThresholdPct float64) (*model.Budget, error) {
	if alertThresholdPct == 0 {
		alertThresholdPct = model.DefaultAlertThresholdPct
	}

	budget, ok := m.budgets[category]
	if !ok {
		budget = &model.Budget{
			ID:       int64(len(m.budgets) + 1),
			Category: category,
		}
		m.budgets[category] = budget
	}
	budget.MonthlyAmount = monthlyAmount
	budget.AlertThresholdPct = alertThresholdPct
	budget.Active = true

	stored := *budget
	return &stored, nil
}

// Budgets returns all budgets, optionally restricted to active ones.
func (m *MemoryLedger) Budgets(_ context.Context, activeOnly bool) ([]model.Budget, error) {
	var out []model.Budget
	for _, budget := range m.budgets {
		if activeOnly && !budget.Active {
			continue
		}
		out = append(out, *budget)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// BudgetByCategory returns the budget for a category.
func (m *MemoryLedger) BudgetByCategory(_ context.Context, category string) (*model.Budget, error) {
	budget, ok := m.budgets[category]
	if !ok {
		return nil, storage.ErrBudgetNotFound
	}
	stored := *budget
	return &stored, nil
}

// DeactivateBudget marks a budget inactive; useful for alert tests.
func (m *MemoryLedger) DeactivateBudget(category string) {
	if budget, ok := m.budgets[category]; ok {
		budget.Active = false
	}
}

// Migrate is a no-op for the in-memory ledger.
func (m *MemoryLedger) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the in-memory ledger.
func (m *MemoryLedger) Close() error { return nil }

func sortedCopy(txns []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
