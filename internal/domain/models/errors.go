package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested product has no stock record.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidQuantity indicates a non-positive mutation delta.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidRequest indicates a structurally invalid request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInsufficientQuantity indicates a deduction that would drive stock negative.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	// ErrPersistence wraps faults from the underlying store. Fatal to the
	// in-flight operation; callers may retry with backoff, the core never does.
	ErrPersistence = errors.New("persistence failure")
)

// InsufficientQuantityError reports which product could not cover a deduction.
type InsufficientQuantityError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientQuantityError) Is(target error) bool {
	return target == ErrInsufficientQuantity
}

// PartialFulfillmentError reports an order whose commit phase failed after
// some lines were already durably deducted. Committed carries every applied
// line with its resulting quantity so the caller can reconcile.
type PartialFulfillmentError struct {
	Committed       []OrderLineResult
	FailedProductID string
	Err             error
}

func (e *PartialFulfillmentError) Error() string {
	return fmt.Sprintf("order partially fulfilled: %d line(s) committed before product %s failed: %v",
		len(e.Committed), e.FailedProductID, e.Err)
}

func (e *PartialFulfillmentError) Unwrap() error { return e.Err }
