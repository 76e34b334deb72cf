package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/dinero/internal/cli"
	"github.com/Veraticus/dinero/internal/model"
)

const maxTransactionRows = 15

var (
	menuCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	helpStyle       = lipgloss.NewStyle().Foreground(cli.SubtleColor).MarginTop(1)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch {
	case m.loading:
		body = cli.SubtleStyle.Render("Loading...")
	case m.lastError != nil:
		body = cli.FormatError(m.lastError.Error())
	default:
		switch m.state {
		case StateMenu:
			body = m.viewMenu()
		case StateSummary:
			body = m.viewSummary()
		case StateTransactions:
			body = cli.RenderTransactions(m.limitTransactions())
		case StateAlerts:
			body = m.viewAlerts()
		case StateForecast:
			body = m.viewForecast()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cli.FormatTitle("Dinero"),
		body,
		helpStyle.Render(m.helpLine()),
	)
}

func (m Model) viewMenu() string {
	var b strings.Builder
	for i, entry := range menuEntries {
		if i == m.cursor {
			b.WriteString(menuCursorStyle.Render("> " + entry.title))
		} else {
			b.WriteString("  " + entry.title)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewSummary() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		cli.RenderSummary(m.summary),
		cli.RenderCategoryStats(m.categories),
	)
}

func (m Model) viewAlerts() string {
	if m.report == nil {
		return cli.FormatInfo("No report available")
	}
	return cli.RenderAlertReport(m.report)
}

func (m Model) viewForecast() string {
	if m.forecast == nil {
		return cli.FormatInfo("No forecast available")
	}
	if len(m.forecast.ByCategory) == 0 {
		return cli.FormatInfo("Not enough history to forecast")
	}

	categories := make([]string, 0, len(m.forecast.ByCategory))
	for category := range m.forecast.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	lines := []string{fmt.Sprintf("Forecast for %04d-%02d", m.forecast.Year, m.forecast.Month), ""}
	for _, category := range categories {
		lines = append(lines, fmt.Sprintf("%-18s $%.2f", category, m.forecast.ByCategory[category]))
	}
	lines = append(lines, "", cli.BoldStyle.Render(fmt.Sprintf("%-18s $%.2f", "TOTAL", m.forecast.Total)))
	return strings.Join(lines, "\n")
}

func (m Model) limitTransactions() []model.Transaction {
	if len(m.transactions) > maxTransactionRows {
		return m.transactions[:maxTransactionRows]
	}
	return m.transactions
}

func (m Model) helpLine() string {
	if m.state == StateMenu {
		return "↑/k ↓/j navigate · enter select · q quit"
	}
	return "esc back · r refresh · q quit"
}
