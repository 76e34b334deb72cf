package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) loadSummary() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		summary, err := m.stats.Summary(ctx)
		if err != nil {
			return summaryLoadedMsg{err: err}
		}
		categories, err := m.stats.ExpensesByCategory(ctx)
		if err != nil {
			return summaryLoadedMsg{err: err}
		}
		return summaryLoadedMsg{summary: summary, categories: categories}
	}
}

func (m Model) loadTransactions() tea.Cmd {
	return func() tea.Msg {
		txns, err := m.ledger.Transactions(context.Background())
		return transactionsLoadedMsg{transactions: txns, err: err}
	}
}

func (m Model) loadAlerts() tea.Cmd {
	return func() tea.Msg {
		report, err := m.aggregator.GenerateReport(context.Background())
		return alertsLoadedMsg{report: report, err: err}
	}
}

func (m Model) loadForecast() tea.Cmd {
	return func() tea.Msg {
		forecast, err := m.predictor.PredictMonth(context.Background(), 0, 0)
		return forecastLoadedMsg{forecast: forecast, err: err}
	}
}
