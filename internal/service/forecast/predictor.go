package forecast

import (
	"math"
	"time"

	"github.com/parkjm/restock/internal/domain/models"
)

// Predict turns an item's thresholds and its consumption estimate into a
// depletion/reorder forecast. Dates use integer day granularity; fractional
// days round down. Reorder dates beyond the horizon are reported as stable
// long-term instead of an enormous calendar date.
func Predict(item models.Item, estimate models.ConsumptionEstimate, today time.Time, horizonDays int) models.Prediction {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	prediction := models.Prediction{
		Qcode:        item.Qcode,
		Name:         item.Name,
		CurrentStock: item.CurrentStock,
		ReorderPoint: item.ReorderPoint,
		Estimate:     estimate,
	}

	if !estimate.Valid {
		prediction.Status = models.PredictionUnknown
		prediction.Reason = models.ReasonInsufficientHistory
		return prediction
	}

	if estimate.RatePerDay >= 0 {
		prediction.Status = models.PredictionStable
		return prediction
	}

	perDay := -estimate.RatePerDay

	// Already at or below the reorder point means the trigger is now.
	reorderDays := int(math.Floor(math.Max(0, item.CurrentStock-item.ReorderPoint) / perDay))
	if reorderDays > horizonDays {
		prediction.Status = models.PredictionStableLongTerm
		return prediction
	}

	depletionDays := int(math.Floor(item.CurrentStock / perDay))

	prediction.Status = models.PredictionDepleting
	reorderDate := today.AddDate(0, 0, reorderDays)
	prediction.ReorderDate = &reorderDate
	prediction.DaysUntilReorder = &reorderDays
	if depletionDays <= horizonDays {
		depletionDate := today.AddDate(0, 0, depletionDays)
		prediction.DepletionDate = &depletionDate
	}
	return prediction
}
