// Package export writes ledger data to interchange formats.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/stats"
)

var csvHeader = []string{
	"id", "date", "kind", "category", "subcategory",
	"payment_method", "amount", "memo", "notes", "is_recurring",
}

var summaryHeader = []string{"month", "income", "expense", "balance"}

// CSVExporter streams ledger transactions as CSV.
type CSVExporter struct {
	ledger service.Ledger
}

// NewCSVExporter creates a CSV exporter over the given ledger.
func NewCSVExporter(ledger service.Ledger) *CSVExporter {
	return &CSVExporter{ledger: ledger}
}

// Export writes every transaction to w, newest first, and returns the
// number of rows written.
func (e *CSVExporter) Export(ctx context.Context, w io.Writer) (int, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	return e.write(w, txns)
}

// ExportRange writes transactions within [start, end] to w.
func (e *CSVExporter) ExportRange(ctx context.Context, w io.Writer, start, end time.Time) (int, error) {
	txns, err := e.ledger.TransactionsByDateRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	return e.write(w, txns)
}

// ExportMonthlySummary writes one row per calendar month with income,
// expense, and balance totals, oldest first.
func (e *CSVExporter) ExportMonthlySummary(ctx context.Context, w io.Writer) (int, error) {
	trend, err := stats.NewEngine(e.ledger).MonthlyTrend(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to compute monthly trend: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, month := range trend {
		record := []string{
			month.Month,
			strconv.FormatFloat(month.Income, 'f', 2, 64),
			strconv.FormatFloat(month.Expense, 'f', 2, 64),
			strconv.FormatFloat(month.Balance, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	slog.Info("Exported monthly summary to CSV", "months", len(trend))
	return len(trend), nil
}

func (e *CSVExporter) write(w io.Writer, txns []model.Transaction) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range txns {
		record := []string{
			strconv.FormatInt(txn.ID, 10),
			txn.Date.Format(time.RFC3339),
			string(txn.Kind),
			txn.Category,
			txn.Subcategory,
			txn.PaymentMethod,
			strconv.FormatFloat(txn.Amount, 'f', 2, 64),
			txn.Memo,
			txn.Notes,
			strconv.FormatBool(txn.IsRecurring),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}

	slog.Info("Exported transactions to CSV", "count", len(txns))
	return len(txns), nil
}
