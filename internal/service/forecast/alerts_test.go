package forecast

import (
	"testing"

	"github.com/parkjm/restock/internal/domain/models"
)

func alertWith(qcode, status string, reorderInDays *int) models.Alert {
	alert := models.Alert{Qcode: qcode, Status: status}
	if reorderInDays != nil {
		date := testNow.AddDate(0, 0, *reorderInDays)
		alert.ReorderDate = &date
	}
	return alert
}

func days(n int) *int { return &n }

func TestSortAlerts(t *testing.T) {
	cases := []struct {
		name  string
		input []models.Alert
		want  []string
	}{
		{
			name: "status tier dominates date",
			input: []models.Alert{
				alertWith("B", models.StatusWarning, days(1)),
				alertWith("A", models.StatusCritical, days(2)),
			},
			want: []string{"A", "B"},
		},
		{
			name: "sooner date first within a tier",
			input: []models.Alert{
				alertWith("A", models.StatusWarning, days(9)),
				alertWith("B", models.StatusWarning, days(3)),
			},
			want: []string{"B", "A"},
		},
		{
			name: "dateless alerts last within their tier",
			input: []models.Alert{
				alertWith("A", models.StatusCritical, nil),
				alertWith("B", models.StatusCritical, days(30)),
				alertWith("C", models.StatusWarning, days(1)),
			},
			want: []string{"B", "A", "C"},
		},
		{
			name: "qcode breaks exact ties",
			input: []models.Alert{
				alertWith("Z", models.StatusWarning, days(5)),
				alertWith("A", models.StatusWarning, days(5)),
				alertWith("M", models.StatusWarning, nil),
				alertWith("B", models.StatusWarning, nil),
			},
			want: []string{"A", "Z", "B", "M"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alerts := make([]models.Alert, len(tc.input))
			copy(alerts, tc.input)

			sortAlerts(alerts)

			for i, want := range tc.want {
				if alerts[i].Qcode != want {
					t.Fatalf("position %d = %s, want %s (full order %v)", i, alerts[i].Qcode, want, qcodes(alerts))
				}
				if alerts[i].Rank != i+1 {
					t.Errorf("rank of %s = %d, want %d", alerts[i].Qcode, alerts[i].Rank, i+1)
				}
			}
		})
	}
}

func qcodes(alerts []models.Alert) []string {
	out := make([]string, len(alerts))
	for i, alert := range alerts {
		out[i] = alert.Qcode
	}
	return out
}

func TestSortAlerts_DeterministicAcrossRuns(t *testing.T) {
	build := func() []models.Alert {
		return []models.Alert{
			alertWith("Q3", models.StatusWarning, days(2)),
			alertWith("Q1", models.StatusCritical, nil),
			alertWith("Q2", models.StatusCritical, days(2)),
			alertWith("Q4", models.StatusWarning, nil),
		}
	}

	first := build()
	sortAlerts(first)

	for i := 0; i < 10; i++ {
		next := build()
		sortAlerts(next)
		for j := range next {
			if next[j].Qcode != first[j].Qcode || next[j].Rank != first[j].Rank {
				t.Fatalf("run %d produced different order: %v vs %v", i, qcodes(next), qcodes(first))
			}
		}
	}
}
