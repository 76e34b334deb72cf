package model

import "time"

// DefaultAlertThresholdPct is the budget usage percentage at which a
// warning alert fires when no explicit threshold is configured.
const DefaultAlertThresholdPct = 80.0

// Budget is a monthly spending ceiling for a single expense category.
// There is at most one active budget per category; writes are upserts
// keyed on the category name.
type Budget struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Category          string
	MonthlyAmount     float64
	AlertThresholdPct float64
	ID                int64
	Active            bool
}
