package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
)

// Repository is an in-memory inventory store. It backs local development
// when no MongoDB URI is configured, and the package tests. A single mutex
// serializes stock updates, which satisfies the per-item write discipline
// the accessor contract requires.
type Repository struct {
	mu           sync.Mutex
	items        map[string]models.Item
	observations map[string][]models.Observation
	now          func() time.Time
}

// NewRepository returns an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{
		items:        make(map[string]models.Item),
		observations: make(map[string][]models.Observation),
		now:          time.Now,
	}
}

// SetClock overrides the timestamp source for new observations.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// PutItem inserts or replaces an item.
func (r *Repository) PutItem(item models.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Qcode] = item
}

// AddObservation appends a pre-built observation without touching stock.
// Used to seed historical data.
func (r *Repository) AddObservation(obs models.Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations[obs.Qcode] = append(r.observations[obs.Qcode], obs)
}

// ListItems returns all items ordered by qcode.
func (r *Repository) ListItems(ctx context.Context) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]models.Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Qcode < items[j].Qcode })
	return items, nil
}

// GetItem returns the item for the given qcode.
func (r *Repository) GetItem(ctx context.Context, qcode string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[qcode]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", qcode, models.ErrNotFound)
	}
	return &item, nil
}

// ListObservations returns the item's observations at or after since,
// ascending by timestamp.
func (r *Repository) ListObservations(ctx context.Context, qcode string, since time.Time) ([]models.Observation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Observation
	for _, obs := range r.observations[qcode] {
		if obs.Timestamp.Before(since) {
			continue
		}
		out = append(out, obs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// AppendObservation updates the item's stock and appends one observation
// under the store lock.
func (r *Repository) AppendObservation(ctx context.Context, qcode string, newQuantity float64, method, notes string) (*models.RecordResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[qcode]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", qcode, models.ErrNotFound)
	}

	previous := item.CurrentStock
	item.CurrentStock = newQuantity
	r.items[qcode] = item

	r.observations[qcode] = append(r.observations[qcode], models.Observation{
		Qcode:           qcode,
		Timestamp:       r.now().UTC(),
		Quantity:        newQuantity,
		QuantityChange:  newQuantity - previous,
		DetectionMethod: method,
		Notes:           notes,
	})

	return &models.RecordResult{
		Qcode:          qcode,
		PreviousStock:  previous,
		CurrentStock:   newQuantity,
		QuantityChange: newQuantity - previous,
	}, nil
}
