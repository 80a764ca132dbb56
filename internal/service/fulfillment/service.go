package fulfillment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
)

// Inventory is the slice of the inventory service the engine depends on.
type Inventory interface {
	GetByID(ctx context.Context, productID string) (models.StockRecord, error)
	DeductStock(ctx context.Context, productID string, quantity int) (models.StockRecord, error)
}

// Service validates and executes multi-line orders against the inventory,
// producing a priced summary. The whole order is checked for feasibility
// before any line commits; the store-level atomic deduct remains the final
// authority when a concurrent mutation invalidates the pre-check.
type Service struct {
	inv    Inventory
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires a new fulfillment engine.
func NewService(inv Inventory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inv:    inv,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Execute runs one fulfillment attempt. On success every line has been
// deducted and the summary carries line totals and the grand total. When a
// commit-phase deduct fails after earlier lines committed, the returned
// error is a *models.PartialFulfillmentError listing the committed lines.
func (s *Service) Execute(ctx context.Context, req models.OrderRequest) (models.OrderSummary, error) {
	if err := validate(req); err != nil {
		return models.OrderSummary{}, err
	}

	// Resolve every product before touching any stock.
	records := make(map[string]models.StockRecord, len(req.Lines))
	for _, line := range req.Lines {
		if _, ok := records[line.ProductID]; ok {
			continue
		}
		rec, err := s.inv.GetByID(ctx, line.ProductID)
		if err != nil {
			return models.OrderSummary{}, err
		}
		records[line.ProductID] = rec
	}

	// Feasibility pre-check, aggregated per product so repeated lines for
	// one product cannot pass individually while jointly overdrawing.
	requested := make(map[string]int, len(records))
	for _, line := range req.Lines {
		requested[line.ProductID] += line.Quantity
	}
	for productID, total := range requested {
		if available := records[productID].Quantity; total > available {
			return models.OrderSummary{}, &models.InsufficientQuantityError{
				ProductID: productID,
				Requested: total,
				Available: available,
			}
		}
	}

	// Commit phase: deduct in request order. Each deduct is individually
	// durable, so a late failure is reported, not rolled back.
	committed := make([]models.OrderLineResult, 0, len(req.Lines))
	grandTotal := 0.0
	for _, line := range req.Lines {
		rec, err := s.inv.DeductStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			if len(committed) == 0 {
				return models.OrderSummary{}, err
			}
			s.logger.Error("order partially fulfilled",
				zap.String("failed_product_id", line.ProductID),
				zap.Int("committed_lines", len(committed)),
				zap.Error(err))
			return models.OrderSummary{}, &models.PartialFulfillmentError{
				Committed:       committed,
				FailedProductID: line.ProductID,
				Err:             err,
			}
		}

		lineTotal := float64(line.Quantity) * line.UnitPrice
		grandTotal += lineTotal
		committed = append(committed, models.OrderLineResult{
			ProductID: line.ProductID,
			ItemName:  rec.ItemName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
			Remaining: rec.Quantity,
		})
	}

	summary := models.OrderSummary{
		OrderID:         s.newID(),
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		Lines:           committed,
		GrandTotal:      grandTotal,
		IssuedAt:        s.now().UTC(),
	}

	s.logger.Info("order fulfilled",
		zap.String("order_id", summary.OrderID),
		zap.Int("lines", len(summary.Lines)),
		zap.Float64("grand_total", summary.GrandTotal))

	return summary, nil
}

func validate(req models.OrderRequest) error {
	if req.CustomerName == "" || req.CustomerAddress == "" {
		return fmt.Errorf("%w: customer name and address are required", models.ErrInvalidRequest)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: order has no lines", models.ErrInvalidRequest)
	}
	for i, line := range req.Lines {
		if line.ProductID == "" {
			return fmt.Errorf("%w: line %d has no product id", models.ErrInvalidRequest, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d quantity must be positive", models.ErrInvalidRequest, i)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("%w: line %d unit price must not be negative", models.ErrInvalidRequest, i)
		}
	}
	return nil
}
