package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/repository/memory"
	"github.com/007AHA007/Inventory/internal/service/inventory"
)

func newEngine(t *testing.T, seed map[string]int) (*Service, *inventory.Service) {
	t.Helper()

	audit := memory.NewAuditLog()
	store := memory.NewStore(audit)
	inv := inventory.NewService(store, audit, nil)
	for productID, qty := range seed {
		if _, err := inv.ReceiveStock(context.Background(), productID, "Item "+productID, qty, "B1"); err != nil {
			t.Fatalf("seed %s: %v", productID, err)
		}
	}
	return NewService(inv, nil), inv
}

func order(lines ...models.OrderLine) models.OrderRequest {
	return models.OrderRequest{
		CustomerName:    "Ada",
		CustomerAddress: "1 Infinite Loop",
		Lines:           lines,
	}
}

func TestExecuteValidation(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t, map[string]int{"P1": 10})

	cases := []struct {
		name string
		req  models.OrderRequest
	}{
		{"no lines", order()},
		{"zero quantity", order(models.OrderLine{ProductID: "P1", Quantity: 0, UnitPrice: 1})},
		{"negative quantity", order(models.OrderLine{ProductID: "P1", Quantity: -2, UnitPrice: 1})},
		{"negative price", order(models.OrderLine{ProductID: "P1", Quantity: 1, UnitPrice: -0.5})},
		{"blank product", order(models.OrderLine{ProductID: "", Quantity: 1, UnitPrice: 1})},
		{"missing customer", models.OrderRequest{Lines: []models.OrderLine{{ProductID: "P1", Quantity: 1, UnitPrice: 1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Execute(ctx, tc.req); !errors.Is(err, models.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestExecuteUnknownProduct(t *testing.T) {
	ctx := context.Background()
	engine, inv := newEngine(t, map[string]int{"P1": 10})

	req := order(
		models.OrderLine{ProductID: "P1", Quantity: 1, UnitPrice: 2},
		models.OrderLine{ProductID: "ghost", Quantity: 1, UnitPrice: 2},
	)
	_, err := engine.Execute(ctx, req)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec, err := inv.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 10 {
		t.Errorf("lookup failure must not deduct anything, got %d", rec.Quantity)
	}
}

func TestExecuteAllOrNothing(t *testing.T) {
	ctx := context.Background()
	engine, inv := newEngine(t, map[string]int{"P1": 10, "P2": 3})

	req := order(
		models.OrderLine{ProductID: "P1", Quantity: 4, UnitPrice: 2.5},
		models.OrderLine{ProductID: "P2", Quantity: 5, UnitPrice: 1}, // exceeds stock
	)
	_, err := engine.Execute(ctx, req)
	if !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	var detail *models.InsufficientQuantityError
	if !errors.As(err, &detail) || detail.ProductID != "P2" {
		t.Errorf("expected detail naming P2, got %v", err)
	}

	for productID, want := range map[string]int{"P1": 10, "P2": 3} {
		rec, err := inv.GetByID(ctx, productID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Quantity != want {
			t.Errorf("rejected order must leave %s at %d, got %d", productID, want, rec.Quantity)
		}
	}
}

func TestExecuteAggregatesRepeatedLines(t *testing.T) {
	ctx := context.Background()
	engine, inv := newEngine(t, map[string]int{"P1": 5})

	// Each line alone is feasible; together they overdraw.
	req := order(
		models.OrderLine{ProductID: "P1", Quantity: 3, UnitPrice: 1},
		models.OrderLine{ProductID: "P1", Quantity: 3, UnitPrice: 1},
	)
	if _, err := engine.Execute(ctx, req); !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}

	rec, err := inv.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 5 {
		t.Errorf("expected untouched quantity 5, got %d", rec.Quantity)
	}
}

func TestExecuteProducesPricedSummary(t *testing.T) {
	ctx := context.Background()
	engine, inv := newEngine(t, map[string]int{"P1": 10, "P2": 8})

	req := order(
		models.OrderLine{ProductID: "P1", Quantity: 4, UnitPrice: 2.5},
		models.OrderLine{ProductID: "P2", Quantity: 2, UnitPrice: 10},
	)
	summary, err := engine.Execute(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.OrderID == "" {
		t.Error("expected a generated order id")
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(summary.Lines))
	}
	if summary.Lines[0].LineTotal != 10 || summary.Lines[1].LineTotal != 20 {
		t.Errorf("unexpected line totals: %+v", summary.Lines)
	}
	if summary.GrandTotal != 30 {
		t.Errorf("expected grand total 30, got %v", summary.GrandTotal)
	}
	if summary.Lines[0].Remaining != 6 || summary.Lines[1].Remaining != 6 {
		t.Errorf("unexpected remaining quantities: %+v", summary.Lines)
	}

	rec, err := inv.GetByID(ctx, "P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Quantity != 6 {
		t.Errorf("expected P1 deducted to 6, got %d", rec.Quantity)
	}
}

// racyInventory simulates a concurrent mutation landing between the
// feasibility pre-check and the commit phase of a later line.
type racyInventory struct {
	recs   map[string]models.StockRecord
	failOn string
}

func (r *racyInventory) GetByID(_ context.Context, productID string) (models.StockRecord, error) {
	rec, ok := r.recs[productID]
	if !ok {
		return models.StockRecord{}, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}
	return rec, nil
}

func (r *racyInventory) DeductStock(_ context.Context, productID string, quantity int) (models.StockRecord, error) {
	if productID == r.failOn {
		return models.StockRecord{}, &models.InsufficientQuantityError{ProductID: productID, Requested: quantity, Available: 0}
	}
	rec := r.recs[productID]
	rec.Quantity -= quantity
	r.recs[productID] = rec
	return rec, nil
}

func TestExecuteReportsPartialFulfillment(t *testing.T) {
	ctx := context.Background()
	inv := &racyInventory{
		recs: map[string]models.StockRecord{
			"P1": {ProductID: "P1", ItemName: "Widget", Quantity: 10},
			"P2": {ProductID: "P2", ItemName: "Gadget", Quantity: 10},
		},
		failOn: "P2",
	}
	engine := NewService(inv, nil)

	req := order(
		models.OrderLine{ProductID: "P1", Quantity: 4, UnitPrice: 1},
		models.OrderLine{ProductID: "P2", Quantity: 4, UnitPrice: 1},
	)
	_, err := engine.Execute(ctx, req)

	var partial *models.PartialFulfillmentError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFulfillmentError, got %v", err)
	}
	if partial.FailedProductID != "P2" {
		t.Errorf("expected failure on P2, got %s", partial.FailedProductID)
	}
	if len(partial.Committed) != 1 || partial.Committed[0].ProductID != "P1" {
		t.Fatalf("expected committed line for P1, got %+v", partial.Committed)
	}
	if partial.Committed[0].Remaining != 6 {
		t.Errorf("committed line must carry the resulting quantity, got %+v", partial.Committed[0])
	}
	if !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Errorf("partial error must unwrap to the underlying cause, got %v", err)
	}
}

func TestExecuteFirstLineFailureIsNotPartial(t *testing.T) {
	ctx := context.Background()
	inv := &racyInventory{
		recs: map[string]models.StockRecord{
			"P1": {ProductID: "P1", ItemName: "Widget", Quantity: 10},
		},
		failOn: "P1",
	}
	engine := NewService(inv, nil)

	_, err := engine.Execute(ctx, order(models.OrderLine{ProductID: "P1", Quantity: 1, UnitPrice: 1}))

	var partial *models.PartialFulfillmentError
	if errors.As(err, &partial) {
		t.Fatalf("nothing committed, expected plain error, got %v", err)
	}
	if !errors.Is(err, models.ErrInsufficientQuantity) {
		t.Errorf("expected ErrInsufficientQuantity, got %v", err)
	}
}
