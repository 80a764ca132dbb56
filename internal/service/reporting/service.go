package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/domain/repository"
	"github.com/007AHA007/Inventory/internal/repository/sheets"
)

const dateLayout = "2006-01-02"

// Service aggregates the audit trail into day-level movement summaries.
type Service struct {
	audit    repository.AuditLog
	exporter sheets.Exporter
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance. exporter may be nil,
// in which case snapshots are not exported.
func NewService(audit repository.AuditLog, exporter sheets.Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		audit:    audit,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// GenerateDailyReport scans the audit entries for the calendar day
// containing day (in day's location) and returns the aggregated report.
// When an exporter is configured the snapshot row is appended as well.
func (s *Service) GenerateDailyReport(ctx context.Context, day time.Time) (models.MovementReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	report := models.MovementReport{
		Date:        start,
		GeneratedAt: s.now().UTC(),
	}

	products := make(map[string]struct{})
	for entry, err := range s.audit.QueryRange(ctx, start, end) {
		if err != nil {
			return models.MovementReport{}, fmt.Errorf("scan audit range: %w", err)
		}

		switch entry.Kind {
		case models.MutationReceipt:
			report.Receipts++
			report.ReceiptUnits += entry.NewQuantity - entry.OldQuantity
		case models.MutationOrder:
			report.Orders++
			report.OrderUnits += entry.OldQuantity - entry.NewQuantity
		default:
			s.logger.Warn("skip audit entry with unknown kind",
				zap.Int64("sequence_id", entry.SequenceID),
				zap.String("kind", string(entry.Kind)))
			continue
		}
		products[entry.ProductID] = struct{}{}
	}
	report.Products = len(products)

	if s.exporter != nil {
		if err := s.exporter.AppendSnapshot(ctx, report); err != nil {
			// The report itself is still good; export is best-effort.
			s.logger.Error("failed to export movement snapshot", zap.Error(err))
		}
	}

	return report, nil
}

// Summary renders the report as a one-line operator summary.
func Summary(report models.MovementReport) string {
	if report.Receipts == 0 && report.Orders == 0 {
		return fmt.Sprintf("Movements (%s): no activity.", report.Date.Format(dateLayout))
	}
	return fmt.Sprintf("Movements (%s): %d %s (+%d %s), %d %s (-%d %s) across %d %s.",
		report.Date.Format(dateLayout),
		report.Receipts, plural(report.Receipts, "receipt"),
		report.ReceiptUnits, plural(report.ReceiptUnits, "unit"),
		report.Orders, plural(report.Orders, "order"),
		report.OrderUnits, plural(report.OrderUnits, "unit"),
		report.Products, plural(report.Products, "product"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
