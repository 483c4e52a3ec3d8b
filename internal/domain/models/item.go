package models

import "time"

// Detection methods recorded on an Observation.
const (
	DetectionManual    = "manual_adjustment"
	DetectionAutomated = "auto_detection"
)

// Item is one tracked inventory part, keyed by its immutable Q-CODE.
// Invariant: ReorderPoint >= MinStock >= 0.
type Item struct {
	Qcode        string    `bson:"qcode" json:"qcode"`
	Name         string    `bson:"name" json:"name"`
	Category     string    `bson:"category" json:"category"`
	Unit         string    `bson:"unit" json:"unit"`
	CurrentStock float64   `bson:"current_stock" json:"current_stock"`
	MinStock     float64   `bson:"min_stock" json:"min_stock"`
	ReorderPoint float64   `bson:"reorder_point" json:"reorder_point"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Observation is one timestamped stock reading for an item. Append-only;
// QuantityChange is the signed delta against the previous reading.
type Observation struct {
	Qcode           string    `bson:"qcode" json:"qcode"`
	Timestamp       time.Time `bson:"timestamp" json:"timestamp"`
	Quantity        float64   `bson:"quantity" json:"quantity"`
	QuantityChange  float64   `bson:"quantity_change" json:"quantity_change"`
	DetectionMethod string    `bson:"detection_method" json:"detection_method"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// RecordResult describes the outcome of appending a stock observation.
type RecordResult struct {
	Qcode          string  `json:"qcode"`
	PreviousStock  float64 `json:"previous_stock"`
	CurrentStock   float64 `json:"current_stock"`
	QuantityChange float64 `json:"quantity_change"`
}
