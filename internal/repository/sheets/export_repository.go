package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/007AHA007/Inventory/internal/config"
	"github.com/007AHA007/Inventory/internal/domain/models"
)

const snapshotRange = "Movements!A:G"

// Exporter appends daily movement snapshots to an operations spreadsheet.
type Exporter interface {
	AppendSnapshot(ctx context.Context, report models.MovementReport) error
}

// GoogleSheetExporter implements Exporter using the official Sheets API.
type GoogleSheetExporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetExporter builds a Google Sheets backed exporter instance.
func NewGoogleSheetExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetExporter, error) {
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
		logger:        logger,
	}, nil
}

// AppendSnapshot appends one report as a row to the movements sheet.
func (e *GoogleSheetExporter) AppendSnapshot(ctx context.Context, report models.MovementReport) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{{
		report.Date.Format("2006-01-02"),
		report.Receipts,
		report.ReceiptUnits,
		report.Orders,
		report.OrderUnits,
		report.Products,
		report.GeneratedAt.Format("2006-01-02 15:04:05"),
	}}}

	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, snapshotRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append snapshot row: %w", err)
	}

	e.logger.Debug("movement snapshot appended", zap.Time("date", report.Date))
	return nil
}
