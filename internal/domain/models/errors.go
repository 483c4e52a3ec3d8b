package models

import "errors"

// Sentinel errors surfaced across the repository and service boundaries.
// Insufficient history is deliberately not an error: it is absorbed into
// Prediction.Status/Reason because it is an expected outcome for new or
// rarely-moving items.
var (
	ErrNotFound            = errors.New("item not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
