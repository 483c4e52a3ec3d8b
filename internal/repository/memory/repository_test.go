package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
)

func seed(t *testing.T) *Repository {
	t.Helper()

	repo := NewRepository()
	repo.PutItem(models.Item{
		Qcode:        "Q1",
		Name:         "hex bolt M6",
		Unit:         "EA",
		CurrentStock: 100,
		MinStock:     10,
		ReorderPoint: 30,
	})
	return repo
}

func TestGetItem_NotFound(t *testing.T) {
	repo := seed(t)

	_, err := repo.GetItem(context.Background(), "NOPE")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListObservations_SinceFilter(t *testing.T) {
	repo := seed(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		repo.AddObservation(models.Observation{
			Qcode:     "Q1",
			Timestamp: base.AddDate(0, 0, i),
			Quantity:  float64(100 - i),
		})
	}

	observations, err := repo.ListObservations(context.Background(), "Q1", base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}

	if len(observations) != 3 {
		t.Fatalf("observation count = %d, want 3", len(observations))
	}
	for i := 1; i < len(observations); i++ {
		if observations[i].Timestamp.Before(observations[i-1].Timestamp) {
			t.Fatalf("observations not ascending: %v after %v", observations[i].Timestamp, observations[i-1].Timestamp)
		}
	}
}

func TestAppendObservation_UnknownItem(t *testing.T) {
	repo := seed(t)

	_, err := repo.AppendObservation(context.Background(), "NOPE", 10, models.DetectionManual, "")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Concurrent adjustments must each record the stock value they actually
// replaced: the deltas have to chain, summing to the final minus the
// initial stock.
func TestAppendObservation_ConcurrentAdjustmentsChain(t *testing.T) {
	repo := seed(t)
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(qty float64) {
			defer wg.Done()
			if _, err := repo.AppendObservation(context.Background(), "Q1", qty, models.DetectionAutomated, ""); err != nil {
				t.Errorf("AppendObservation: %v", err)
			}
		}(float64(i))
	}
	wg.Wait()

	observations, err := repo.ListObservations(context.Background(), "Q1", time.Time{})
	if err != nil {
		t.Fatalf("ListObservations: %v", err)
	}
	if len(observations) != writers {
		t.Fatalf("observation count = %d, want %d", len(observations), writers)
	}

	var total float64
	for _, obs := range observations {
		total += obs.QuantityChange
	}

	item, err := repo.GetItem(context.Background(), "Q1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got := item.CurrentStock - 100; total != got {
		t.Errorf("sum of deltas = %v, want %v (final %v)", total, got, item.CurrentStock)
	}
}
