// Package model defines the core domain types shared across the application.
package model

import (
	"fmt"
	"time"
)

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

// Transaction kinds.
const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Validate checks that the kind is one of the known values.
func (k TransactionKind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	default:
		return fmt.Errorf("invalid transaction kind: %q", string(k))
	}
}

// Transaction represents a single income or expense entry in the ledger.
// Transactions are immutable once created: the ledger only inserts and
// deletes them, never updates in place.
type Transaction struct {
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Kind          TransactionKind
	Category      string
	Subcategory   string // optional
	PaymentMethod string
	Memo          string // optional, drives duplicate and anomaly explanations
	Notes         string // optional
	Amount        float64
	ID            int64
	IsRecurring   bool
}

// IsExpense reports whether the transaction is an expense.
func (t *Transaction) IsExpense() bool {
	return t.Kind == KindExpense
}

// IsIncome reports whether the transaction is an income.
func (t *Transaction) IsIncome() bool {
	return t.Kind == KindIncome
}

// ExpenseCategories is the fixed category list for expense transactions.
var ExpenseCategories = []string{
	"Alimentación",
	"Transporte",
	"Vivienda",
	"Servicios",
	"Salud",
	"Entretenimiento",
	"Educación",
	"Ropa",
	"Tecnología",
	"Otros",
}

// IncomeCategories is the fixed category list for income transactions.
var IncomeCategories = []string{
	"Salario",
	"Freelance",
	"Inversiones",
	"Negocios",
	"Bonos",
	"Otros",
}

// PaymentMethods is the fixed list of accepted payment methods.
var PaymentMethods = []string{
	"Efectivo",
	"Tarjeta de Débito",
	"Tarjeta de Crédito",
	"Transferencia",
	"PayPal",
	"Yape/Plin",
	"Otros",
}

// CategoriesFor returns the valid category list for a transaction kind.
func CategoriesFor(kind TransactionKind) []string {
	if kind == KindIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// ValidCategory reports whether category is in the fixed list for kind.
func ValidCategory(kind TransactionKind, category string) bool {
	for _, c := range CategoriesFor(kind) {
		if c == category {
			return true
		}
	}
	return false
}

// ValidPaymentMethod reports whether method is in the fixed list.
func ValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
