package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/metrics"
	"github.com/007AHA007/Inventory/internal/service/inventory"
)

// InventoryHandler handles stock receipt, lookup and audit trail requests
// from the inventory management UI.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type receiptRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	ItemName  string `json:"item_name" binding:"required"`
	Quantity  int    `json:"quantity"`
	BoxID     string `json:"box_id" binding:"required"`
}

// Receive records a stock receipt.
func (h *InventoryHandler) Receive(c *gin.Context) {
	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid receipt payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.svc.ReceiveStock(c.Request.Context(), req.ProductID, req.ItemName, req.Quantity, req.BoxID)
	if err != nil {
		h.logger.Warn("failed to receive stock", zap.String("product_id", req.ProductID), zap.Error(err))
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	metrics.StockMutationsTotal.WithLabelValues("receipt").Inc()
	c.JSON(http.StatusOK, rec)
}

// List returns every stock record ordered by product ID.
func (h *InventoryHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list inventory", zap.Error(err))
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Search returns the current record for a product.
func (h *InventoryHandler) Search(c *gin.Context) {
	productID := c.Param("productID")

	rec, err := h.svc.Search(c.Request.Context(), productID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// AuditTrail returns the full mutation history for a product.
func (h *InventoryHandler) AuditTrail(c *gin.Context) {
	productID := c.Param("productID")

	entries, err := h.svc.AuditTrail(c.Request.Context(), productID)
	if err != nil {
		h.logger.Error("failed to load audit trail", zap.String("product_id", productID), zap.Error(err))
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": productID, "entries": entries})
}
