package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/parkjm/restock/internal/config"
	"github.com/parkjm/restock/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Exporter publishes alert snapshots to a spreadsheet for the purchasing team.
type Exporter interface {
	AppendAlerts(ctx context.Context, when time.Time, alerts []models.Alert) error
}

// GoogleSheetExporter implements Exporter using the official Google Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	reportRange   string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetExporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		reportRange:   cfg.ReportRange,
		logger:        logger,
	}, nil
}

// AppendAlerts appends one row per alert: date, qcode, name, status, stock,
// reorder point and predicted reorder date.
func (e *GoogleSheetExporter) AppendAlerts(ctx context.Context, when time.Time, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(alerts))
	for _, alert := range alerts {
		reorderDate := ""
		if alert.ReorderDate != nil {
			reorderDate = alert.ReorderDate.Format(dateLayout)
		}
		rows = append(rows, []interface{}{
			when.Format(dateLayout),
			alert.Qcode,
			alert.Name,
			alert.Status,
			alert.CurrentStock,
			alert.ReorderPoint,
			reorderDate,
		})
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, e.reportRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append alert rows into range %s: %w", e.reportRange, err)
	}

	e.logger.Debug("alert snapshot exported", zap.Int("rows", len(rows)))
	return nil
}
