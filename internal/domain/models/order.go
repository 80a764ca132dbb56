package models

import "time"

// OrderLine is a single requested line of a multi-line order.
type OrderLine struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderRequest carries the customer identity (opaque to the engine) and the
// ordered line sequence for one fulfillment attempt. It is transient and
// never persisted.
type OrderRequest struct {
	CustomerName    string      `json:"customer_name" binding:"required"`
	CustomerAddress string      `json:"customer_address" binding:"required"`
	Lines           []OrderLine `json:"lines"`
}

// OrderLineResult is a committed line with its priced total and the stock
// level the deduction left behind.
type OrderLineResult struct {
	ProductID string  `json:"product_id"`
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Remaining int     `json:"remaining_quantity"`
}

// OrderSummary is the priced result of a fully committed order. The
// document-rendering collaborator consumes it as-is.
type OrderSummary struct {
	OrderID         string            `json:"order_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerAddress string            `json:"customer_address"`
	Lines           []OrderLineResult `json:"lines"`
	GrandTotal      float64           `json:"grand_total"`
	IssuedAt        time.Time         `json:"issued_at"`
}
