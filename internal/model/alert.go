package model

import "time"

// Severity classifies how urgent an alert is.
type Severity string

// Alert severities.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// BudgetAlert fires when a category's current-month spend crosses its
// budget's configured alert threshold.
type BudgetAlert struct {
	CreatedAt   time.Time `json:"created_at"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	Message     string    `json:"message"`
	PercentUsed float64   `json:"percent_used"`
	Spent       float64   `json:"spent"`
	Budget      float64   `json:"budget"`
}

// AnomalyAlert wraps an anomalous expense flagged by the detector
// within the recent review window.
type AnomalyAlert struct {
	CreatedAt  time.Time `json:"created_at"`
	ExpenseAt  time.Time `json:"expense_at"`
	Severity   Severity  `json:"severity"`
	Category   string    `json:"category"`
	Message    string    `json:"message"`
	Amount     float64   `json:"amount"`
	Confidence float64   `json:"confidence"`
}

// ProjectionAlert warns that the end-of-month balance is projected to be
// negative at the currently observed per-day income and expense rates.
type ProjectionAlert struct {
	CreatedAt        time.Time `json:"created_at"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"message"`
	DaysRemaining    int       `json:"days_remaining"`
	SpentSoFar       float64   `json:"spent_so_far"`
	IncomeSoFar      float64   `json:"income_so_far"`
	ProjectedExpense float64   `json:"projected_expense"`
	ProjectedIncome  float64   `json:"projected_income"`
	ProjectedBalance float64   `json:"projected_balance"`
}

// DuplicateAlert marks a pair of expenses that look like the same charge
// recorded twice: matching amount and category within a short time window.
type DuplicateAlert struct {
	CreatedAt   time.Time `json:"created_at"`
	FirstAt     time.Time `json:"first_at"`
	SecondAt    time.Time `json:"second_at"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	Message     string    `json:"message"`
	Amount      float64   `json:"amount"`
	DiffMinutes float64   `json:"diff_minutes"`
}

// SeverityCounts tallies alerts per severity level.
type SeverityCounts struct {
	Critical int `json:"CRITICAL"`
	Warning  int `json:"WARNING"`
	Info     int `json:"INFO"`
}

// AlertReport is the merged output of all alert checks. The latest report
// is persisted as a JSON snapshot, overwritten on each generation.
type AlertReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Projection  *ProjectionAlert `json:"projection,omitempty"`
	Budgets     []BudgetAlert    `json:"budget_alerts"`
	Anomalies   []AnomalyAlert   `json:"anomaly_alerts"`
	Duplicates  []DuplicateAlert `json:"duplicate_alerts"`
	TotalAlerts int              `json:"total_alerts"`
	Levels      SeverityCounts   `json:"levels"`
}
