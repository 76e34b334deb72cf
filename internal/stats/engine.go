// Package stats computes aggregate statistics over the transaction ledger.
//
// Every operation pulls a fresh snapshot from the ledger and recomputes
// from scratch; nothing is cached. Operations are read-only and degrade to
// zero values on an empty ledger instead of returning errors.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/service"
)

// DefaultUnusualThreshold is the number of standard deviations beyond the
// category mean at which an expense counts as unusual.
const DefaultUnusualThreshold = 2.5

// minUnusualSamples is the smallest expense population for which the
// outlier-by-deviation method runs at all.
const minUnusualSamples = 10

// minCategorySamples is the smallest per-category sample count with
// enough support to estimate variance.
const minCategorySamples = 3

// Engine computes statistics over the ledger.
type Engine struct {
	ledger service.Ledger
}

// NewEngine creates a statistics engine backed by the given ledger.
func NewEngine(ledger service.Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// Summary is the aggregate view of the whole ledger.
type Summary struct {
	TotalIncome    float64 `json:"total_income"`
	TotalExpense   float64 `json:"total_expense"`
	Balance        float64 `json:"balance"`
	AvgIncome      float64 `json:"avg_income"`
	AvgExpense     float64 `json:"avg_expense"`
	SavingsRatePct float64 `json:"savings_rate_pct"`
	Transactions   int     `json:"transactions"`
}

// CategoryStat aggregates the expenses of one category.
type CategoryStat struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Percent  float64 `json:"percent"`
	Count    int     `json:"count"`
}

// MonthlyTrend is the income/expense/balance of one calendar month.
type MonthlyTrend struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// MethodStat aggregates transactions by payment method.
type MethodStat struct {
	Method string  `json:"method"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// UnusualExpense is an expense flagged as a statistical outlier within
// its category.
type UnusualExpense struct {
	Date         time.Time `json:"date"`
	Category     string    `json:"category"`
	Memo         string    `json:"memo,omitempty"`
	Amount       float64   `json:"amount"`
	CategoryMean float64   `json:"category_mean"`
	ZScore       float64   `json:"z_score"`
}

// Projection is a linear extrapolation of historical daily averages.
type Projection struct {
	Days             int     `json:"days"`
	ProjectedExpense float64 `json:"projected_expense"`
	ProjectedIncome  float64 `json:"projected_income"`
	ProjectedBalance float64 `json:"projected_balance"`
	AvgDailyExpense  float64 `json:"avg_daily_expense"`
	AvgDailyIncome   float64 `json:"avg_daily_income"`
}

// RecurringSummary aggregates expenses flagged as recurring.
type RecurringSummary struct {
	ByCategory map[string]float64 `json:"by_category"`
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
}

// Summary returns aggregate income, expense, balance, per-kind averages,
// transaction count, and the savings rate (balance/income, zero when there
// is no income).
func (e *Engine) Summary(ctx context.Context) (Summary, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	var summary Summary
	var incomes, expenses []float64

	for _, txn := range txns {
		if txn.IsIncome() {
			incomes = append(incomes, txn.Amount)
		} else {
			expenses = append(expenses, txn.Amount)
		}
	}

	summary.Transactions = len(txns)
	summary.TotalIncome = round2(sum(incomes))
	summary.TotalExpense = round2(sum(expenses))
	summary.Balance = round2(summary.TotalIncome - summary.TotalExpense)

	if len(incomes) > 0 {
		summary.AvgIncome = round2(stat.Mean(incomes, nil))
	}
	if len(expenses) > 0 {
		summary.AvgExpense = round2(stat.Mean(expenses, nil))
	}
	if summary.TotalIncome > 0 {
		summary.SavingsRatePct = round2(summary.Balance / summary.TotalIncome * 100)
	}

	return summary, nil
}

// ExpensesByCategory aggregates expenses per category, sorted by total
// descending. The standard deviation is the sample standard deviation.
func (e *Engine) ExpensesByCategory(ctx context.Context) ([]CategoryStat, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	amounts := expenseAmountsByCategory(txns)
	if len(amounts) == 0 {
		return nil, nil
	}

	var grandTotal float64
	for _, xs := range amounts {
		grandTotal += sum(xs)
	}

	results := make([]CategoryStat, 0, len(amounts))
	for category, xs := range amounts {
		total := sum(xs)
		cs := CategoryStat{
			Category: category,
			Total:    round2(total),
			Mean:     round2(stat.Mean(xs, nil)),
			Count:    len(xs),
			Percent:  round2(total / grandTotal * 100),
		}
		if len(xs) > 1 {
			cs.StdDev = round2(stat.StdDev(xs, nil))
		}
		results = append(results, cs)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].Category < results[j].Category
	})

	return results, nil
}

// MonthlyTrend sums income and expense per calendar month, oldest first.
func (e *Engine) MonthlyTrend(ctx context.Context) ([]MonthlyTrend, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	type bucket struct {
		income  float64
		expense float64
	}
	months := make(map[string]*bucket)

	for _, txn := range txns {
		key := txn.Date.Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &bucket{}
			months[key] = b
		}
		if txn.IsIncome() {
			b.income += txn.Amount
		} else {
			b.expense += txn.Amount
		}
	}

	keys := make([]string, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	trend := make([]MonthlyTrend, 0, len(keys))
	for _, key := range keys {
		b := months[key]
		trend = append(trend, MonthlyTrend{
			Month:   key,
			Income:  round2(b.income),
			Expense: round2(b.expense),
			Balance: round2(b.income - b.expense),
		})
	}

	return trend, nil
}

// PaymentMethodBreakdown aggregates all transactions per payment method,
// sorted by total descending.
func (e *Engine) PaymentMethodBreakdown(ctx context.Context) ([]MethodStat, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	amounts := make(map[string][]float64)
	for _, txn := range txns {
		amounts[txn.PaymentMethod] = append(amounts[txn.PaymentMethod], txn.Amount)
	}

	results := make([]MethodStat, 0, len(amounts))
	for method, xs := range amounts {
		results = append(results, MethodStat{
			Method: method,
			Total:  round2(sum(xs)),
			Mean:   round2(stat.Mean(xs, nil)),
			Count:  len(xs),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].Method < results[j].Method
	})

	return results, nil
}

// UnusualExpenses flags expenses further than threshold standard
// deviations above their category mean. Categories with fewer than three
// samples are skipped; nothing is flagged when the whole ledger holds
// fewer than ten expenses.
func (e *Engine) UnusualExpenses(ctx context.Context, threshold float64) ([]UnusualExpense, error) {
	if threshold <= 0 {
		threshold = DefaultUnusualThreshold
	}

	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	var expenses []model.Transaction
	for _, txn := range txns {
		if txn.IsExpense() {
			expenses = append(expenses, txn)
		}
	}
	if len(expenses) < minUnusualSamples {
		return nil, nil
	}

	byCategory := make(map[string][]model.Transaction)
	for _, txn := range expenses {
		byCategory[txn.Category] = append(byCategory[txn.Category], txn)
	}

	var unusual []UnusualExpense
	for _, catTxns := range byCategory {
		if len(catTxns) < minCategorySamples {
			continue
		}

		xs := make([]float64, len(catTxns))
		for i, txn := range catTxns {
			xs[i] = txn.Amount
		}

		mean := stat.Mean(xs, nil)
		std := stat.StdDev(xs, nil)
		limit := mean + threshold*std

		for _, txn := range catTxns {
			if txn.Amount <= limit {
				continue
			}
			z := 0.0
			if std > 0 {
				z = (txn.Amount - mean) / std
			}
			unusual = append(unusual, UnusualExpense{
				Date:         txn.Date,
				Category:     txn.Category,
				Memo:         txn.Memo,
				Amount:       txn.Amount,
				CategoryMean: round2(mean),
				ZScore:       round2(z),
			})
		}
	}

	sort.Slice(unusual, func(i, j int) bool {
		return unusual[i].Date.After(unusual[j].Date)
	})

	return unusual, nil
}

// Projection extrapolates average historical daily income and expense
// over the given number of future days. Daily averages are computed over
// the calendar days on which that kind of transaction was observed.
func (e *Engine) Projection(ctx context.Context, days int) (Projection, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return Projection{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(txns) == 0 || days <= 0 {
		return Projection{Days: days}, nil
	}

	expenseDays := make(map[string]float64)
	incomeDays := make(map[string]float64)
	for _, txn := range txns {
		day := txn.Date.Format("2006-01-02")
		if txn.IsExpense() {
			expenseDays[day] += txn.Amount
		} else {
			incomeDays[day] += txn.Amount
		}
	}

	avgExpense := meanOfDailyTotals(expenseDays)
	avgIncome := meanOfDailyTotals(incomeDays)

	p := Projection{
		Days:             days,
		AvgDailyExpense:  round2(avgExpense),
		AvgDailyIncome:   round2(avgIncome),
		ProjectedExpense: round2(avgExpense * float64(days)),
		ProjectedIncome:  round2(avgIncome * float64(days)),
	}
	p.ProjectedBalance = round2(p.ProjectedIncome - p.ProjectedExpense)

	return p, nil
}

// TopExpenses returns the n largest expense transactions by amount.
func (e *Engine) TopExpenses(ctx context.Context, n int) ([]model.Transaction, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if n <= 0 {
		return nil, nil
	}

	var expenses []model.Transaction
	for _, txn := range txns {
		if txn.IsExpense() {
			expenses = append(expenses, txn)
		}
	}

	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Amount > expenses[j].Amount
	})

	if len(expenses) > n {
		expenses = expenses[:n]
	}
	return expenses, nil
}

// RecurringSummary totals the expense transactions flagged as recurring,
// broken down by category.
func (e *Engine) RecurringSummary(ctx context.Context) (RecurringSummary, error) {
	txns, err := e.ledger.Transactions(ctx)
	if err != nil {
		return RecurringSummary{}, fmt.Errorf("failed to load transactions: %w", err)
	}

	summary := RecurringSummary{ByCategory: make(map[string]float64)}
	var total float64

	for _, txn := range txns {
		if !txn.IsExpense() || !txn.IsRecurring {
			continue
		}
		total += txn.Amount
		summary.ByCategory[txn.Category] = round2(summary.ByCategory[txn.Category] + txn.Amount)
		summary.Count++
	}
	summary.Total = round2(total)

	return summary, nil
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func meanOfDailyTotals(days map[string]float64) float64 {
	if len(days) == 0 {
		return 0
	}
	totals := make([]float64, 0, len(days))
	for _, total := range days {
		totals = append(totals, total)
	}
	return stat.Mean(totals, nil)
}

func expenseAmountsByCategory(txns []model.Transaction) map[string][]float64 {
	amounts := make(map[string][]float64)
	for _, txn := range txns {
		if txn.IsExpense() {
			amounts[txn.Category] = append(amounts[txn.Category], txn.Amount)
		}
	}
	return amounts
}

// round2 rounds a monetary value to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
