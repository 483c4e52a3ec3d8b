package inventory

import (
	"context"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
)

// Repository is the history-store accessor: read access to items and their
// time-ordered observations, plus the single write path that records a new
// stock reading.
type Repository interface {
	// ListItems returns every tracked item.
	ListItems(ctx context.Context) ([]models.Item, error)

	// GetItem returns the item for the given qcode, or models.ErrNotFound.
	GetItem(ctx context.Context, qcode string) (*models.Item, error)

	// ListObservations returns the item's observations at or after since,
	// ordered by ascending timestamp.
	ListObservations(ctx context.Context, qcode string, since time.Time) ([]models.Observation, error)

	// AppendObservation sets the item's current stock to newQuantity and
	// appends exactly one observation whose quantity change is computed
	// against the stock value actually replaced. The stock update must be
	// serialized per item so concurrent adjustments never overwrite each
	// other silently.
	AppendObservation(ctx context.Context, qcode string, newQuantity float64, method, notes string) (*models.RecordResult, error)
}
