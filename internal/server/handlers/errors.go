package handlers

import (
	"errors"
	"net/http"

	"github.com/007AHA007/Inventory/internal/domain/models"
)

// statusFromError maps domain errors onto HTTP status codes. Validation
// errors are never retried server-side; persistence faults surface as 500
// so callers can retry with backoff.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientQuantity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
