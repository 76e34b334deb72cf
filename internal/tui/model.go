// Package tui implements the interactive console menu as a bubbletea
// application.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/dinero/internal/alerts"
	"github.com/Veraticus/dinero/internal/model"
	"github.com/Veraticus/dinero/internal/predict"
	"github.com/Veraticus/dinero/internal/service"
	"github.com/Veraticus/dinero/internal/stats"
)

// State is the screen currently shown.
type State int

// Screens.
const (
	StateMenu State = iota
	StateSummary
	StateTransactions
	StateAlerts
	StateForecast
)

// menuEntries are the selectable actions on the main menu.
var menuEntries = []struct {
	title string
	state State
}{
	{"Financial summary", StateSummary},
	{"Recent transactions", StateTransactions},
	{"Alerts", StateAlerts},
	{"Next month forecast", StateForecast},
}

// Config wires the TUI's collaborators.
type Config struct {
	Ledger     service.Ledger
	Predictor  *predict.Predictor
	Aggregator *alerts.Aggregator
}

// Model holds the TUI state.
type Model struct {
	ledger     service.Ledger
	stats      *stats.Engine
	predictor  *predict.Predictor
	aggregator *alerts.Aggregator

	lastError    error
	report       *model.AlertReport
	forecast     *predict.MonthForecast
	transactions []model.Transaction
	categories   []stats.CategoryStat
	summary      stats.Summary

	keymap   KeyMap
	state    State
	cursor   int
	width    int
	height   int
	loading  bool
	quitting bool
}

// NewModel creates the initial menu model.
func NewModel(cfg Config) Model {
	return Model{
		ledger:     cfg.Ledger,
		stats:      stats.NewEngine(cfg.Ledger),
		predictor:  cfg.Predictor,
		aggregator: cfg.Aggregator,
		keymap:     DefaultKeyMap(),
		state:      StateMenu,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case summaryLoadedMsg:
		m.loading = false
		m.lastError = msg.err
		m.summary = msg.summary
		m.categories = msg.categories
		return m, nil

	case transactionsLoadedMsg:
		m.loading = false
		m.lastError = msg.err
		m.transactions = msg.transactions
		return m, nil

	case alertsLoadedMsg:
		m.loading = false
		m.lastError = msg.err
		m.report = msg.report
		return m, nil

	case forecastLoadedMsg:
		m.loading = false
		m.lastError = msg.err
		m.forecast = msg.forecast
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Back):
		if m.state != StateMenu {
			m.state = StateMenu
			m.lastError = nil
		}
		return m, nil

	case key.Matches(msg, m.keymap.Up):
		if m.state == StateMenu && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		if m.state == StateMenu && m.cursor < len(menuEntries)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keymap.Refresh):
		if m.state != StateMenu {
			return m.enter(m.state)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Select):
		if m.state == StateMenu {
			return m.enter(menuEntries[m.cursor].state)
		}
		return m, nil
	}

	return m, nil
}

// enter switches to a screen and kicks off its data load.
func (m Model) enter(state State) (tea.Model, tea.Cmd) {
	m.state = state
	m.loading = true
	m.lastError = nil

	switch state {
	case StateSummary:
		return m, m.loadSummary()
	case StateTransactions:
		return m, m.loadTransactions()
	case StateAlerts:
		return m, m.loadAlerts()
	case StateForecast:
		return m, m.loadForecast()
	default:
		m.loading = false
		return m, nil
	}
}
