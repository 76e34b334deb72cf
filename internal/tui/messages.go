package tui

import (
	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/predict"
	"github.com/Veraticus/dinero/internal/stats"
)

// Data loading messages.
type summaryLoadedMsg struct {
	err        error
	summary    stats.Summary
	categories []stats.CategoryStat
}

type transactionsLoadedMsg struct {
	err          error
	transactions []model.Transaction
}

type alertsLoadedMsg struct {
	err    error
	report *model.AlertReport
}

type forecastLoadedMsg struct {
	err      error
	forecast *predict.MonthForecast
}
