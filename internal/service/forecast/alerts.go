package forecast

import (
	"sort"

	"github.com/parkjm/restock/internal/domain/models"
)

var statusWeight = map[string]int{
	models.StatusCritical: 0,
	models.StatusWarning:  1,
}

// sortAlerts imposes the total order consumed downstream: critical before
// warning, sooner reorder dates before later ones within a tier, alerts
// without a concrete date after all dated alerts in their tier, and qcode
// as the final deterministic tie-break. Rank is the 1-based position.
func sortAlerts(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if statusWeight[a.Status] != statusWeight[b.Status] {
			return statusWeight[a.Status] < statusWeight[b.Status]
		}
		switch {
		case a.ReorderDate != nil && b.ReorderDate != nil:
			if !a.ReorderDate.Equal(*b.ReorderDate) {
				return a.ReorderDate.Before(*b.ReorderDate)
			}
		case a.ReorderDate != nil:
			return true
		case b.ReorderDate != nil:
			return false
		}
		return a.Qcode < b.Qcode
	})

	for i := range alerts {
		alerts[i].Rank = i + 1
	}
}
