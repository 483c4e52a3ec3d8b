package models

import "time"

// Stock status tiers produced by the classifier, most urgent first.
const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
	StatusSafe     = "safe"
)

// Prediction lifecycle statuses.
const (
	PredictionUnknown        = "unknown"
	PredictionStable         = "stable"
	PredictionStableLongTerm = "stable_long_term"
	PredictionDepleting      = "depleting"
)

// ReasonInsufficientHistory explains an unknown prediction: too few
// observations in the lookback window to estimate a consumption rate.
const ReasonInsufficientHistory = "insufficient_history"

// ConsumptionEstimate is the averaged daily stock delta for one item.
// Negative RatePerDay means the item is depleting. Derived per request,
// never persisted.
type ConsumptionEstimate struct {
	RatePerDay  float64 `json:"rate_per_day"`
	Valid       bool    `json:"valid"`
	SampleCount int     `json:"sample_count"`
	WindowDays  int     `json:"window_days"`
}

// Prediction combines an item's thresholds with its consumption estimate.
// Dates are nil whenever no finite forecast exists for the current rate.
type Prediction struct {
	Qcode            string              `json:"qcode"`
	Name             string              `json:"name"`
	Status           string              `json:"status"`
	Reason           string              `json:"reason,omitempty"`
	StockStatus      string              `json:"stock_status"`
	CurrentStock     float64             `json:"current_stock"`
	ReorderPoint     float64             `json:"reorder_point"`
	DepletionDate    *time.Time          `json:"depletion_date,omitempty"`
	ReorderDate      *time.Time          `json:"reorder_date,omitempty"`
	DaysUntilReorder *int                `json:"days_until_reorder,omitempty"`
	Estimate         ConsumptionEstimate `json:"estimate"`
}

// Alert flags one non-safe item for action. Rank is the 1-based position
// in the total order produced by the aggregator.
type Alert struct {
	Qcode        string     `json:"qcode"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	CurrentStock float64    `json:"current_stock"`
	ReorderPoint float64    `json:"reorder_point"`
	Unit         string     `json:"unit"`
	ReorderDate  *time.Time `json:"reorder_date,omitempty"`
	Rank         int        `json:"rank"`
}
