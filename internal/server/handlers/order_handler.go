package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/metrics"
	"github.com/007AHA007/Inventory/internal/service/fulfillment"
)

// OrderHandler handles multi-line order fulfillment requests.
type OrderHandler struct {
	svc    *fulfillment.Service
	logger *zap.Logger
}

// NewOrderHandler constructs the HTTP handler adapter.
func NewOrderHandler(svc *fulfillment.Service, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{svc: svc, logger: logger}
}

// Create executes an order and returns the priced summary.
func (h *OrderHandler) Create(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid order payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := h.svc.Execute(c.Request.Context(), req)
	if err != nil {
		var partial *models.PartialFulfillmentError
		if errors.As(err, &partial) {
			// Committed lines are durable; the caller must reconcile.
			metrics.OrdersTotal.WithLabelValues("partial").Inc()
			h.logger.Error("order partially fulfilled", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "order partially fulfilled",
				"committed_lines":   partial.Committed,
				"failed_product_id": partial.FailedProductID,
				"cause":             partial.Err.Error(),
			})
			return
		}

		metrics.OrdersTotal.WithLabelValues("rejected").Inc()
		h.logger.Warn("order rejected", zap.Error(err))
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	metrics.OrdersTotal.WithLabelValues("fulfilled").Inc()
	metrics.StockMutationsTotal.WithLabelValues("order").Add(float64(len(summary.Lines)))
	c.JSON(http.StatusCreated, summary)
}
