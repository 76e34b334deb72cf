package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/stats"
)

// RenderSummary renders the aggregate ledger summary as a box.
func RenderSummary(summary stats.Summary) string {
	balanceStyle := SuccessStyle
	if summary.Balance < 0 {
		balanceStyle = ErrorStyle
	}

	lines := []string{
		fmt.Sprintf("Income:       %s", SuccessStyle.Render(money(summary.TotalIncome))),
		fmt.Sprintf("Expenses:     %s", ErrorStyle.Render(money(summary.TotalExpense))),
		fmt.Sprintf("Balance:      %s", balanceStyle.Render(money(summary.Balance))),
		fmt.Sprintf("Savings rate: %.1f%%", summary.SavingsRatePct),
		SubtleStyle.Render(fmt.Sprintf("%d transactions", summary.Transactions)),
	}
	return RenderBox("Financial Summary", strings.Join(lines, "\n"))
}

// RenderCategoryStats renders the per-category expense breakdown as a
// table.
func RenderCategoryStats(categories []stats.CategoryStat) string {
	if len(categories) == 0 {
		return FormatInfo("No expenses recorded yet")
	}

	header := TableHeaderStyle.Render(fmt.Sprintf("%-18s %12s %10s %8s %7s",
		"Category", "Total", "Mean", "Count", "%"))

	rows := make([]string, 0, len(categories)+1)
	rows = append(rows, header)
	for _, c := range categories {
		rows = append(rows, TableCellStyle.Render(fmt.Sprintf("%-18s %12s %10s %8d %6.1f%%",
			c.Category, money(c.Total), money(c.Mean), c.Count, c.Percent)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderTransactions renders a transaction list as a table, newest first.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return FormatInfo("No transactions found")
	}

	header := TableHeaderStyle.Render(fmt.Sprintf("%-5s %-10s %-8s %-18s %12s  %s",
		"ID", "Date", "Kind", "Category", "Amount", "Memo"))

	rows := make([]string, 0, len(txns)+1)
	rows = append(rows, header)
	for _, txn := range txns {
		amount := money(txn.Amount)
		if txn.IsExpense() {
			amount = ErrorStyle.Render("-" + amount)
		} else {
			amount = SuccessStyle.Render("+" + amount)
		}
		rows = append(rows, fmt.Sprintf("%-5d %-10s %-8s %-18s %12s  %s",
			txn.ID, txn.Date.Format("2006-01-02"), txn.Kind, txn.Category, amount, txn.Memo))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderAlertReport renders the merged alert report grouped by check.
func RenderAlertReport(report *model.AlertReport) string {
	if report.TotalAlerts == 0 {
		return FormatSuccess("No alerts. Everything looks fine.")
	}

	var sections []string
	sections = append(sections, FormatTitle(fmt.Sprintf("%d alerts", report.TotalAlerts)))

	for _, alert := range report.Budgets {
		sections = append(sections, severityLine(alert.Severity, alert.Message))
	}
	for _, alert := range report.Anomalies {
		sections = append(sections, severityLine(alert.Severity,
			fmt.Sprintf("%s: %s (%s, confidence %.0f%%)",
				alert.ExpenseAt.Format("2006-01-02"), alert.Message, alert.Category, alert.Confidence)))
	}
	if report.Projection != nil {
		sections = append(sections, severityLine(report.Projection.Severity, report.Projection.Message))
	}
	for _, alert := range report.Duplicates {
		sections = append(sections, severityLine(alert.Severity,
			fmt.Sprintf("%s (%.0f minutes apart)", alert.Message, alert.DiffMinutes)))
	}

	sections = append(sections, SubtleStyle.Render(fmt.Sprintf(
		"critical: %d  warning: %d  info: %d",
		report.Levels.Critical, report.Levels.Warning, report.Levels.Info)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func severityLine(severity model.Severity, message string) string {
	switch severity {
	case model.SeverityCritical:
		return FormatError(message)
	case model.SeverityWarning:
		return FormatWarning(message)
	default:
		return FormatInfo(message)
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
