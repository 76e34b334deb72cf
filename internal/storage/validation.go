// Package storage provides the data persistence layer for the dinero application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/dinero/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBudget      = errors.New("invalid budget")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single transaction before insert.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := txn.Kind.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("%w: amount %.2f", ErrInvalidAmount, txn.Amount)
	}
	if txn.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if txn.PaymentMethod == "" {
		return fmt.Errorf("%w: missing payment method", ErrInvalidTransaction)
	}
	return nil
}

// validateBudget validates budget parameters before upsert.
func validateBudget(category string, monthlyAmount, alertThresholdPct float64) error {
	if err := validateString(category, "category"); err != nil {
		return err
	}
	if monthlyAmount <= 0 {
		return fmt.Errorf("%w: monthly amount %.2f", ErrInvalidBudget, monthlyAmount)
	}
	if alertThresholdPct <= 0 || alertThresholdPct > 200 {
		return fmt.Errorf("%w: alert threshold %.1f%%", ErrInvalidBudget, alertThresholdPct)
	}
	return nil
}
