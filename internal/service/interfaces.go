// Package service defines the interfaces the application components share.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/dinero/internal/model"
)

// Ledger is the contract for the persistent transaction and budget store.
// Queries return transactions newest first.
type Ledger interface {
	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	TransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	TransactionsByKind(ctx context.Context, kind model.TransactionKind) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) (bool, error)
	CountTransactions(ctx context.Context) (int, error)

	// Budget operations
	UpsertBudget(ctx context.Context, category string, monthlyAmount, alertThresholdPct float64) (*model.Budget, error)
	Budgets(ctx context.Context, activeOnly bool) ([]model.Budget, error)
	BudgetByCategory(ctx context.Context, category string) (*model.Budget, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// AnomalyChecker is the slice of the anomaly detector the alert
// aggregator consumes. The aggregator never trains the detector; it only
// reads from an already-trained one.
type AnomalyChecker interface {
	IsTrained() bool
	Historical(ctx context.Context, days int) ([]HistoricalAnomaly, error)
}

// HistoricalAnomaly is a past expense flagged as anomalous, annotated
// with the detection outcome for that transaction.
type HistoricalAnomaly struct {
	Date       time.Time
	Category   string
	Memo       string
	Message    string
	Amount     float64
	Confidence float64
}
