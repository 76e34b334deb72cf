package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/dinero/internal/model"
)

// InsertTransaction inserts a single transaction and returns its assigned ID.
// The write is committed atomically; on failure nothing is persisted and the
// error is propagated to the caller.
func (s *SQLiteLedger) InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(txn); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	isRecurring := 0
	if txn.IsRecurring {
		isRecurring = 1
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (
			kind, date, amount, category, subcategory,
			payment_method, memo, notes, is_recurring
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(txn.Kind),
		txn.Date,
		txn.Amount,
		txn.Category,
		nullString(txn.Subcategory),
		txn.PaymentMethod,
		nullString(txn.Memo),
		nullString(txn.Notes),
		isRecurring,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted transaction id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Transaction added",
		"id", id,
		"kind", txn.Kind,
		"amount", txn.Amount,
		"category", txn.Category)

	return id, nil
}

// Transactions returns every transaction in the ledger, newest first.
func (s *SQLiteLedger) Transactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, date, amount, category, subcategory,
		       payment_method, memo, notes, is_recurring, created_at, updated_at
		FROM transactions
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// TransactionsByDateRange returns transactions with start <= date <= end,
// newest first.
func (s *SQLiteLedger) TransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, date, amount, category, subcategory,
		       payment_method, memo, notes, is_recurring, created_at, updated_at
		FROM transactions
		WHERE date >= ? AND date <= ?
		ORDER BY date DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by date range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// TransactionsByKind returns transactions of the given kind, newest first.
func (s *SQLiteLedger) TransactionsByKind(ctx context.Context, kind model.TransactionKind) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, date, amount, category, subcategory,
		       payment_method, memo, notes, is_recurring, created_at, updated_at
		FROM transactions
		WHERE kind = ?
		ORDER BY date DESC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by kind: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// DeleteTransaction removes a transaction by ID. It returns false when no
// transaction with that ID exists.
func (s *SQLiteLedger) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	if affected > 0 {
		slog.Info("Transaction deleted", "id", id)
	}

	return affected > 0, nil
}

// CountTransactions returns the total number of transactions in the ledger.
func (s *SQLiteLedger) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// scanTransactions converts query rows into transactions.
func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for rows.Next() {
		var txn model.Transaction
		var kind string
		var subcategory, memo, notes sql.NullString
		var isRecurring int

		err := rows.Scan(
			&txn.ID,
			&kind,
			&txn.Date,
			&txn.Amount,
			&txn.Category,
			&subcategory,
			&txn.PaymentMethod,
			&memo,
			&notes,
			&isRecurring,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Kind = model.TransactionKind(kind)
		txn.Subcategory = subcategory.String
		txn.Memo = memo.String
		txn.Notes = notes.String
		txn.IsRecurring = isRecurring != 0

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// nullString converts an empty string to a NULL-able value.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
