package forecast

import (
	"sort"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
)

const (
	// DefaultWindowDays is the lookback window for rate estimation.
	DefaultWindowDays = 30

	// DefaultHorizonDays caps how far ahead a reorder date may be
	// predicted before the item is reported as stable long-term.
	DefaultHorizonDays = 3650
)

// Estimate derives the average daily stock delta from an item's observations.
// Only observations inside [now-window, now] count, and at least two spanning
// a strictly positive elapsed time are required. The rate is the net quantity
// change across the window divided by elapsed days; a deliberate average
// rather than a fitted trend, so the same observation set always reproduces
// the same estimate. A non-negative rate is reported as zero: the item is
// not depleting.
func Estimate(observations []models.Observation, now time.Time, windowDays int) models.ConsumptionEstimate {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	cutoff := now.AddDate(0, 0, -windowDays)
	window := make([]models.Observation, 0, len(observations))
	for _, obs := range observations {
		if obs.Timestamp.Before(cutoff) || obs.Timestamp.After(now) {
			continue
		}
		window = append(window, obs)
	}

	estimate := models.ConsumptionEstimate{
		SampleCount: len(window),
		WindowDays:  windowDays,
	}
	if len(window) < 2 {
		return estimate
	}

	// Storage order is not guaranteed strictly increasing.
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})

	first := window[0]
	last := window[len(window)-1]
	elapsedDays := last.Timestamp.Sub(first.Timestamp).Hours() / 24
	if elapsedDays <= 0 {
		return estimate
	}

	estimate.Valid = true
	rate := (last.Quantity - first.Quantity) / elapsedDays
	if rate < 0 {
		estimate.RatePerDay = rate
	}
	return estimate
}
