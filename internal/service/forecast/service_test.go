package forecast

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
	"github.com/parkjm/restock/internal/repository/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Repository) {
	t.Helper()

	repo := memory.NewRepository()
	repo.SetClock(func() time.Time { return testNow })

	svc := NewService(repo, DefaultWindowDays, DefaultHorizonDays, nil)
	svc.SetClock(func() time.Time { return testNow })
	return svc, repo
}

func seedItem(repo *memory.Repository, qcode string, stock, min, reorder float64, history ...models.Observation) {
	repo.PutItem(models.Item{
		Qcode:        qcode,
		Name:         "part " + qcode,
		Unit:         "EA",
		CurrentStock: stock,
		MinStock:     min,
		ReorderPoint: reorder,
		CreatedAt:    testNow.AddDate(0, -6, 0),
	})
	for _, obs := range history {
		obs.Qcode = qcode
		repo.AddObservation(obs)
	}
}

func depleting(daysAgo int, qty float64) models.Observation {
	return models.Observation{Timestamp: testNow.AddDate(0, 0, -daysAgo), Quantity: qty}
}

func TestAlerts_ExcludesSafeItems(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 100, 10, 30, depleting(10, 150), depleting(0, 100))
	seedItem(repo, "Q2", 5, 10, 30, depleting(10, 55), depleting(0, 5))

	alerts, err := svc.Alerts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}

	if len(alerts) != 1 {
		t.Fatalf("alert count = %d, want 1", len(alerts))
	}
	if alerts[0].Qcode != "Q2" || alerts[0].Status != models.StatusCritical {
		t.Errorf("alert = %+v, want critical Q2", alerts[0])
	}
}

func TestAlerts_CriticalBeforeWarning(t *testing.T) {
	svc, repo := newTestService(t)
	// Warning item, sorted first by qcode to prove status dominates.
	seedItem(repo, "Q1", 25, 5, 30, depleting(10, 75), depleting(0, 25))
	seedItem(repo, "Q2", 4, 10, 30, depleting(10, 54), depleting(0, 4))

	alerts, err := svc.Alerts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}

	if len(alerts) != 2 {
		t.Fatalf("alert count = %d, want 2", len(alerts))
	}
	if alerts[0].Qcode != "Q2" || alerts[1].Qcode != "Q1" {
		t.Errorf("order = [%s %s], want [Q2 Q1]", alerts[0].Qcode, alerts[1].Qcode)
	}
	if alerts[0].Rank != 1 || alerts[1].Rank != 2 {
		t.Errorf("ranks = [%d %d], want [1 2]", alerts[0].Rank, alerts[1].Rank)
	}
}

func TestAlerts_UnknownPredictionRanksAfterDated(t *testing.T) {
	svc, repo := newTestService(t)
	// Q1 has no history: prediction unknown, no reorder date.
	seedItem(repo, "Q1", 4, 10, 30)
	seedItem(repo, "Q2", 5, 10, 30, depleting(10, 55), depleting(0, 5))

	alerts, err := svc.Alerts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}

	if len(alerts) != 2 {
		t.Fatalf("alert count = %d, want 2", len(alerts))
	}
	if alerts[0].Qcode != "Q2" {
		t.Errorf("dated alert must rank first, got %s", alerts[0].Qcode)
	}
	if alerts[1].Qcode != "Q1" || alerts[1].ReorderDate != nil {
		t.Errorf("undated alert = %+v, want Q1 with nil reorder date", alerts[1])
	}
}

func TestAlerts_SelectionSkipsUnknownAndDeduplicates(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 4, 10, 30, depleting(10, 54), depleting(0, 4))

	alerts, err := svc.Alerts(context.Background(), []string{"Q1", "NOPE", "Q1"})
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}

	if len(alerts) != 1 {
		t.Fatalf("alert count = %d, want 1", len(alerts))
	}
	if alerts[0].Qcode != "Q1" {
		t.Errorf("alert qcode = %s, want Q1", alerts[0].Qcode)
	}
}

func TestAlerts_Idempotent(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 25, 5, 30, depleting(10, 75), depleting(0, 25))
	seedItem(repo, "Q2", 4, 10, 30, depleting(10, 54), depleting(0, 4))
	seedItem(repo, "Q3", 8, 10, 30)

	first, err := svc.Alerts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	second, err := svc.Alerts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated aggregation differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestPredictItem_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PredictItem(context.Background(), "NOPE", 0)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPredictItem_MergesClassifierStatus(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 5, 10, 30, depleting(10, 55), depleting(0, 5))

	p, err := svc.PredictItem(context.Background(), "Q1", 0)
	if err != nil {
		t.Fatalf("PredictItem: %v", err)
	}

	if p.Status != models.PredictionDepleting {
		t.Errorf("status = %q, want %q", p.Status, models.PredictionDepleting)
	}
	if p.StockStatus != models.StatusCritical {
		t.Errorf("stock status = %q, want %q", p.StockStatus, models.StatusCritical)
	}
}

func TestRecord_AppendsExactlyOneObservation(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 40, 10, 30, depleting(10, 90), depleting(1, 40))

	result, err := svc.Record(context.Background(), "Q1", 25, "cycle count")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if result.PreviousStock != 40 || result.CurrentStock != 25 || result.QuantityChange != -15 {
		t.Errorf("result = %+v, want previous 40, current 25, change -15", result)
	}

	item, err := repo.GetItem(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.CurrentStock != 25 {
		t.Errorf("current stock = %v, want 25", item.CurrentStock)
	}

	observations, err := repo.ListObservations(context.Background(), "Q1", time.Time{})
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}
	if len(observations) != 3 {
		t.Fatalf("observation count = %d, want 3", len(observations))
	}

	latest := observations[len(observations)-1]
	if latest.QuantityChange != -15 {
		t.Errorf("quantity change = %v, want -15", latest.QuantityChange)
	}
	if latest.DetectionMethod != models.DetectionManual {
		t.Errorf("detection method = %q, want %q", latest.DetectionMethod, models.DetectionManual)
	}

	// Prior observations are untouched.
	if observations[0].Quantity != 90 || observations[1].Quantity != 40 {
		t.Errorf("prior history changed: %+v", observations[:2])
	}
}

func TestRecord_RejectsNegativeQuantity(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 40, 10, 30)

	_, err := svc.Record(context.Background(), "Q1", -1, "")
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestHistory_RejectsNonPositiveDays(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 40, 10, 30)

	_, _, err := svc.History(context.Background(), "Q1", 0)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	svc, repo := newTestService(t)
	seedItem(repo, "Q1", 40, 10, 30, depleting(10, 90), depleting(5, 60), depleting(0, 40))

	_, observations, err := svc.History(context.Background(), "Q1", 30)
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	if len(observations) != 3 {
		t.Fatalf("observation count = %d, want 3", len(observations))
	}
	if !observations[0].Timestamp.After(observations[1].Timestamp) {
		t.Errorf("history not newest-first: %v then %v", observations[0].Timestamp, observations[1].Timestamp)
	}
}
