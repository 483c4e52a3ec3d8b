package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parkjm/restock/internal/domain/models"
)

var (
	// HTTPRequests counts completed HTTP requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_http_requests_total",
		Help: "Completed HTTP requests.",
	}, []string{"method", "path", "status"})

	// ActiveAlerts tracks the alert count per status tier from the most
	// recent aggregation pass.
	ActiveAlerts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "restock_active_alerts",
		Help: "Alerts per status tier from the latest aggregation.",
	}, []string{"status"})

	// NarrationRequests counts narration agent invocations.
	NarrationRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restock_narration_requests_total",
		Help: "Narration agent invocations.",
	})

	// NarrationFailures counts narration agent invocations that failed.
	// Failures are logged and counted only, never retried.
	NarrationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restock_narration_failures_total",
		Help: "Narration agent invocations that failed.",
	})
)

// ObserveAlerts refreshes the active-alert gauges from an aggregation result.
func ObserveAlerts(alerts []models.Alert) {
	counts := map[string]int{
		models.StatusCritical: 0,
		models.StatusWarning:  0,
	}
	for _, alert := range alerts {
		counts[alert.Status]++
	}
	for status, count := range counts {
		ActiveAlerts.WithLabelValues(status).Set(float64(count))
	}
}
