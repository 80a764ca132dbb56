package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/repository/memory"
)

func newTestService(opts ...Option) *Service {
	audit := memory.NewAuditLog()
	store := memory.NewStore(audit)
	return NewService(store, audit, nil, opts...)
}

func TestReceiveStockCreatesRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	rec, err := svc.ReceiveStock(ctx, "P1", "Widget", 10, "B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 10 || rec.ItemName != "Widget" || rec.BoxID != "B1" {
		t.Errorf("unexpected record: %+v", rec)
	}

	entries, err := svc.AuditTrail(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.OldQuantity != 0 || entry.NewQuantity != 10 || entry.Kind != models.MutationReceipt {
		t.Errorf("unexpected audit entry: %+v", entry)
	}
}

func TestReceiveStockAccumulatesAndUpdatesBox(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.ReceiveStock(ctx, "P1", "Widget", 10, "B1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := svc.ReceiveStock(ctx, "P1", "Widget", 5, "B2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 15 {
		t.Errorf("expected quantity 15, got %d", rec.Quantity)
	}
	if rec.BoxID != "B2" {
		t.Errorf("expected last-write-wins box B2, got %s", rec.BoxID)
	}
}

func TestReceiveStockValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	cases := []struct {
		name      string
		productID string
		itemName  string
		quantity  int
		boxID     string
		want      error
	}{
		{"zero quantity", "P1", "Widget", 0, "B1", models.ErrInvalidQuantity},
		{"negative quantity", "P1", "Widget", -3, "B1", models.ErrInvalidQuantity},
		{"missing product id", "", "Widget", 1, "B1", models.ErrInvalidRequest},
		{"missing item name", "P1", "", 1, "B1", models.ErrInvalidRequest},
		{"missing box id", "P1", "Widget", 1, "", models.ErrInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ReceiveStock(ctx, tc.productID, tc.itemName, tc.quantity, tc.boxID); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if entries, _ := svc.AuditTrail(ctx, "P1"); len(entries) != 0 {
		t.Errorf("rejected receipts must not produce audit entries, got %d", len(entries))
	}
}

func TestDeductStockInsufficientLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.ReceiveStock(ctx, "P1", "Widget", 5, "B1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.DeductStock(ctx, "P1", 7)
	if !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	var detail *models.InsufficientQuantityError
	if !errors.As(err, &detail) {
		t.Fatalf("expected typed insufficiency error, got %T", err)
	}
	if detail.ProductID != "P1" || detail.Requested != 7 || detail.Available != 5 {
		t.Errorf("unexpected detail: %+v", detail)
	}

	rec, err := svc.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 5 {
		t.Errorf("failed deduction must not change quantity: got %d", rec.Quantity)
	}

	entries, _ := svc.AuditTrail(ctx, "P1")
	if len(entries) != 1 {
		t.Errorf("failed deduction must not produce an audit entry, got %d entries", len(entries))
	}
}

func TestDeductStockUnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.DeductStock(ctx, "missing", 1); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMutationHistoryReconstructsQuantity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	steps := []struct {
		receive bool
		qty     int
	}{
		{true, 10}, {true, 4}, {false, 6}, {true, 1}, {false, 9},
	}

	for _, step := range steps {
		var err error
		if step.receive {
			_, err = svc.ReceiveStock(ctx, "P1", "Widget", step.qty, "B1")
		} else {
			_, err = svc.DeductStock(ctx, "P1", step.qty)
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rec, err := svc.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10+4-6+1-9 = 0
	if rec.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", rec.Quantity)
	}

	entries, err := svc.AuditTrail(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != len(steps) {
		t.Fatalf("expected %d audit entries, got %d", len(steps), len(entries))
	}

	replayed := 0
	for i, entry := range entries {
		if entry.OldQuantity != replayed {
			t.Errorf("entry %d old quantity %d does not chain from %d", i, entry.OldQuantity, replayed)
		}
		replayed = entry.NewQuantity
	}
	if replayed != rec.Quantity {
		t.Errorf("replayed history gives %d, record has %d", replayed, rec.Quantity)
	}
}

func TestConcurrentDeductionsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	const initial = 10
	const workers = 8
	const each = 3 // workers*each = 24 > initial

	if _, err := svc.ReceiveStock(ctx, "P1", "Widget", initial, "B1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var successes atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DeductStock(ctx, "P1", each)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, models.ErrInsufficientQuantity):
				// expected for the losers
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	rec, err := svc.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity < 0 {
		t.Fatalf("quantity went negative: %d", rec.Quantity)
	}
	if deducted := int(successes.Load()) * each; deducted > initial {
		t.Errorf("successful deductions removed %d units from an initial %d", deducted, initial)
	}
	if rec.Quantity != initial-int(successes.Load())*each {
		t.Errorf("final quantity %d does not match %d successful deductions of %d", rec.Quantity, successes.Load(), each)
	}
}

type alertRecorder struct {
	mu    sync.Mutex
	calls []models.StockRecord
}

func (a *alertRecorder) NotifyLowStock(_ context.Context, rec models.StockRecord, _ int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, rec)
	return nil
}

func TestLowStockAlertFiresAtThreshold(t *testing.T) {
	ctx := context.Background()
	recorder := &alertRecorder{}
	svc := newTestService(WithLowStockAlerts(recorder, 3))

	if _, err := svc.ReceiveStock(ctx, "P1", "Widget", 10, "B1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.DeductStock(ctx, "P1", 4); err != nil { // 6 left, above threshold
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.calls) != 0 {
		t.Fatalf("alert must not fire above threshold, got %d calls", len(recorder.calls))
	}

	if _, err := svc.DeductStock(ctx, "P1", 3); err != nil { // 3 left, at threshold
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recorder.calls) != 1 {
		t.Fatalf("expected one alert at threshold, got %d", len(recorder.calls))
	}
	if recorder.calls[0].Quantity != 3 {
		t.Errorf("alert carries wrong quantity: %+v", recorder.calls[0])
	}
}

type publishRecorder struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (p *publishRecorder) PublishMovement(_ context.Context, entry models.AuditEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return nil
}

func TestMovementEventsPublishedPerMutation(t *testing.T) {
	ctx := context.Background()
	recorder := &publishRecorder{}
	svc := newTestService(WithMovementPublisher(recorder))

	if _, err := svc.ReceiveStock(ctx, "P1", "Widget", 5, "B1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DeductStock(ctx, "P1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DeductStock(ctx, "P1", 99); !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	if len(recorder.entries) != 2 {
		t.Fatalf("expected events only for committed mutations, got %d", len(recorder.entries))
	}
	if recorder.entries[0].Kind != models.MutationReceipt || recorder.entries[1].Kind != models.MutationOrder {
		t.Errorf("unexpected event kinds: %+v", recorder.entries)
	}
}
