package forecast

import "github.com/parkjm/restock/internal/domain/models"

// Classify maps current stock against the item's static thresholds.
// The comparisons run most-urgent first, so an item sitting exactly on
// both thresholds resolves to critical.
func Classify(item models.Item) string {
	switch {
	case item.CurrentStock <= item.MinStock:
		return models.StatusCritical
	case item.CurrentStock <= item.ReorderPoint:
		return models.StatusWarning
	default:
		return models.StatusSafe
	}
}
