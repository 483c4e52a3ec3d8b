package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parkjm/restock/internal/domain/models"
	"github.com/parkjm/restock/internal/metrics"
	"github.com/parkjm/restock/internal/repository/inventory"
)

// Service is the prediction and alerting engine. It is stateless across
// requests: every call recomputes from the current item and observation
// data, so a changing store between reads is tolerated by design.
type Service struct {
	repo        inventory.Repository
	windowDays  int
	horizonDays int
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a new forecast service instance.
func NewService(repo inventory.Repository, windowDays, horizonDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Service{
		repo:        repo,
		windowDays:  windowDays,
		horizonDays: horizonDays,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the time source. Predictions anchor "today" to it.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ItemStatus decorates an item with its classifier tier.
type ItemStatus struct {
	models.Item
	StockStatus string `json:"stock_status"`
}

// StatusCounts tallies items per classifier tier.
type StatusCounts struct {
	Critical int `json:"critical_count"`
	Warning  int `json:"warning_count"`
	Safe     int `json:"safe_count"`
}

// CurrentInventory classifies every tracked item.
func (s *Service) CurrentInventory(ctx context.Context) ([]ItemStatus, StatusCounts, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, StatusCounts{}, fmt.Errorf("current inventory: %w", err)
	}

	statuses := make([]ItemStatus, 0, len(items))
	var counts StatusCounts
	for _, item := range items {
		status := Classify(item)
		switch status {
		case models.StatusCritical:
			counts.Critical++
		case models.StatusWarning:
			counts.Warning++
		default:
			counts.Safe++
		}
		statuses = append(statuses, ItemStatus{Item: item, StockStatus: status})
	}
	return statuses, counts, nil
}

// History returns the item's observations within the last days, newest first.
func (s *Service) History(ctx context.Context, qcode string, days int) (*models.Item, []models.Observation, error) {
	if days <= 0 {
		return nil, nil, fmt.Errorf("days must be positive: %w", models.ErrInvalidInput)
	}

	item, err := s.repo.GetItem(ctx, qcode)
	if err != nil {
		return nil, nil, err
	}

	since := s.now().AddDate(0, 0, -days)
	observations, err := s.repo.ListObservations(ctx, qcode, since)
	if err != nil {
		return nil, nil, err
	}

	// Newest first for display.
	for i, j := 0, len(observations)-1; i < j; i, j = i+1, j-1 {
		observations[i], observations[j] = observations[j], observations[i]
	}
	return item, observations, nil
}

// PredictItem computes the depletion/reorder forecast for one item.
// windowDays overrides the configured lookback window when positive.
func (s *Service) PredictItem(ctx context.Context, qcode string, windowDays int) (*models.Prediction, error) {
	item, err := s.repo.GetItem(ctx, qcode)
	if err != nil {
		return nil, err
	}
	prediction, err := s.predict(ctx, *item, windowDays)
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

// PredictAll computes forecasts for every tracked item.
func (s *Service) PredictAll(ctx context.Context) ([]models.Prediction, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("predict all: %w", err)
	}

	predictions := make([]models.Prediction, 0, len(items))
	for _, item := range items {
		prediction, err := s.predict(ctx, item, 0)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *prediction)
	}
	return predictions, nil
}

// Alerts runs the classifier over the selected items (all items when qcodes
// is empty), computes predictions for the non-safe ones, and returns the
// totally ordered alert list. Unknown qcodes are skipped in bulk mode; the
// single-item endpoints are where NotFound surfaces.
func (s *Service) Alerts(ctx context.Context, qcodes []string) ([]models.Alert, error) {
	var items []models.Item
	if len(qcodes) == 0 {
		all, err := s.repo.ListItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("alerts: %w", err)
		}
		items = all
	} else {
		seen := make(map[string]bool, len(qcodes))
		for _, qcode := range qcodes {
			if seen[qcode] {
				continue
			}
			seen[qcode] = true

			item, err := s.repo.GetItem(ctx, qcode)
			if errors.Is(err, models.ErrNotFound) {
				s.logger.Debug("skipping unknown qcode in alert selection", zap.String("qcode", qcode))
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("alerts: %w", err)
			}
			items = append(items, *item)
		}
	}

	alerts := make([]models.Alert, 0, len(items))
	for _, item := range items {
		status := Classify(item)
		if status == models.StatusSafe {
			// Predictions are skipped for healthy stock.
			continue
		}

		prediction, err := s.predict(ctx, item, 0)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, models.Alert{
			Qcode:        item.Qcode,
			Name:         item.Name,
			Status:       status,
			CurrentStock: item.CurrentStock,
			ReorderPoint: item.ReorderPoint,
			Unit:         item.Unit,
			ReorderDate:  prediction.ReorderDate,
		})
	}

	sortAlerts(alerts)
	metrics.ObserveAlerts(alerts)
	return alerts, nil
}

// Record applies a manual stock adjustment: one atomic stock update plus
// exactly one appended observation carrying the delta.
func (s *Service) Record(ctx context.Context, qcode string, quantity float64, notes string) (*models.RecordResult, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", models.ErrInvalidInput)
	}

	result, err := s.repo.AppendObservation(ctx, qcode, quantity, models.DetectionManual, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock recorded",
		zap.String("qcode", qcode),
		zap.Float64("previous_stock", result.PreviousStock),
		zap.Float64("current_stock", result.CurrentStock),
		zap.Float64("quantity_change", result.QuantityChange))
	return result, nil
}

func (s *Service) predict(ctx context.Context, item models.Item, windowDays int) (*models.Prediction, error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	now := s.now()
	since := now.AddDate(0, 0, -windowDays)
	observations, err := s.repo.ListObservations(ctx, item.Qcode, since)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", item.Qcode, err)
	}

	estimate := Estimate(observations, now, windowDays)
	prediction := Predict(item, estimate, now, s.horizonDays)
	prediction.StockStatus = Classify(item)
	return &prediction, nil
}
