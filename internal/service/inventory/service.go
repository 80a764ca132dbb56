package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/domain/repository"
	"github.com/007AHA007/Inventory/pkg/clients/alert"
)

// MovementPublisher fans committed mutations out to interested consumers.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, entry models.AuditEntry) error
}

// Service is the sole mutator of stock state. Every successful mutation is
// paired with exactly one audit entry by the store's unit of work, and the
// quantity invariant (never negative) is enforced inside the atomic
// mutation, not around it.
type Service struct {
	store     repository.StockStore
	audit     repository.AuditLog
	alerts    alert.Client
	publisher MovementPublisher
	threshold int
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLowStockAlerts enables webhook alerts when a deduction leaves a
// product at or below threshold.
func WithLowStockAlerts(client alert.Client, threshold int) Option {
	return func(s *Service) {
		s.alerts = client
		s.threshold = threshold
	}
}

// WithMovementPublisher enables best-effort event fan-out of committed
// mutations.
func WithMovementPublisher(pub MovementPublisher) Option {
	return func(s *Service) {
		s.publisher = pub
	}
}

// NewService wires a new inventory service instance.
func NewService(store repository.StockStore, audit repository.AuditLog, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		store:  store,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ReceiveStock records a stock receipt. Creates the record on first
// receipt for an unseen product; otherwise adds the delta and overwrites
// the box location last-write-wins.
func (s *Service) ReceiveStock(ctx context.Context, productID, itemName string, quantity int, boxID string) (models.StockRecord, error) {
	if productID == "" || itemName == "" || boxID == "" {
		return models.StockRecord{}, fmt.Errorf("%w: product id, item name and box id are required", models.ErrInvalidRequest)
	}
	if quantity <= 0 {
		return models.StockRecord{}, fmt.Errorf("receive %d: %w", quantity, models.ErrInvalidQuantity)
	}

	rec, entry, err := s.store.Mutate(ctx, productID, func(current models.StockRecord, exists bool) (models.StockRecord, models.AuditEntry, error) {
		oldQuantity := 0
		if exists {
			oldQuantity = current.Quantity
		}

		now := s.now().UTC()
		updated := models.StockRecord{
			ProductID: productID,
			ItemName:  itemName,
			Quantity:  oldQuantity + quantity,
			BoxID:     boxID,
			UpdatedAt: now,
		}
		entry := models.AuditEntry{
			ProductID:   productID,
			ItemName:    itemName,
			OldQuantity: oldQuantity,
			NewQuantity: updated.Quantity,
			Kind:        models.MutationReceipt,
			Timestamp:   now,
		}
		return updated, entry, nil
	})
	if err != nil {
		return models.StockRecord{}, err
	}

	s.logger.Info("stock received",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("new_quantity", rec.Quantity),
		zap.Int64("sequence_id", entry.SequenceID))

	s.publish(ctx, entry)
	return rec, nil
}

// DeductStock removes quantity units from a product's stock. The
// sufficiency check and the write form one atomic conditional update; on
// failure no state changes and no audit entry exists.
func (s *Service) DeductStock(ctx context.Context, productID string, quantity int) (models.StockRecord, error) {
	if productID == "" {
		return models.StockRecord{}, fmt.Errorf("%w: product id is required", models.ErrInvalidRequest)
	}
	if quantity <= 0 {
		return models.StockRecord{}, fmt.Errorf("deduct %d: %w", quantity, models.ErrInvalidQuantity)
	}

	rec, entry, err := s.store.Mutate(ctx, productID, func(current models.StockRecord, exists bool) (models.StockRecord, models.AuditEntry, error) {
		if !exists {
			return models.StockRecord{}, models.AuditEntry{}, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
		}
		if current.Quantity-quantity < 0 {
			return models.StockRecord{}, models.AuditEntry{}, &models.InsufficientQuantityError{
				ProductID: productID,
				Requested: quantity,
				Available: current.Quantity,
			}
		}

		now := s.now().UTC()
		updated := current
		updated.Quantity = current.Quantity - quantity
		updated.UpdatedAt = now

		entry := models.AuditEntry{
			ProductID:   productID,
			ItemName:    current.ItemName,
			OldQuantity: current.Quantity,
			NewQuantity: updated.Quantity,
			Kind:        models.MutationOrder,
			Timestamp:   now,
		}
		return updated, entry, nil
	})
	if err != nil {
		return models.StockRecord{}, err
	}

	s.logger.Info("stock deducted",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("new_quantity", rec.Quantity),
		zap.Int64("sequence_id", entry.SequenceID))

	s.publish(ctx, entry)
	s.maybeAlert(ctx, rec)
	return rec, nil
}

// GetByID returns the current record for productID. Pure read, no audit
// entry.
func (s *Service) GetByID(ctx context.Context, productID string) (models.StockRecord, error) {
	if productID == "" {
		return models.StockRecord{}, fmt.Errorf("%w: product id is required", models.ErrInvalidRequest)
	}
	return s.store.Get(ctx, productID)
}

// List returns every stock record ordered by product ID, the full table
// the management UI renders on load.
func (s *Service) List(ctx context.Context) ([]models.StockRecord, error) {
	return s.store.List(ctx)
}

// Search looks a product up by ID for the management UI.
func (s *Service) Search(ctx context.Context, productID string) (models.StockRecord, error) {
	return s.GetByID(ctx, productID)
}

// AuditTrail returns the full mutation history for a product, oldest first.
func (s *Service) AuditTrail(ctx context.Context, productID string) ([]models.AuditEntry, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", models.ErrInvalidRequest)
	}

	var entries []models.AuditEntry
	for entry, err := range s.audit.QueryByProduct(ctx, productID) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) publish(ctx context.Context, entry models.AuditEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMovement(ctx, entry); err != nil {
		s.logger.Warn("failed to publish movement event",
			zap.String("product_id", entry.ProductID),
			zap.Int64("sequence_id", entry.SequenceID),
			zap.Error(err))
	}
}

func (s *Service) maybeAlert(ctx context.Context, rec models.StockRecord) {
	if s.alerts == nil || rec.Quantity > s.threshold {
		return
	}
	if err := s.alerts.NotifyLowStock(ctx, rec, s.threshold); err != nil {
		s.logger.Warn("failed to send low-stock alert",
			zap.String("product_id", rec.ProductID),
			zap.Int("quantity", rec.Quantity),
			zap.Error(err))
	}
}
