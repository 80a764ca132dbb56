package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/007AHA007/Inventory/internal/config"
	"github.com/007AHA007/Inventory/internal/domain/models"
)

// Client delivers low-stock notifications to an external endpoint.
type Client interface {
	NotifyLowStock(ctx context.Context, rec models.StockRecord, threshold int) error
}

// WebhookClient is a resty-backed implementation of Client posting JSON
// payloads to a configured webhook.
type WebhookClient struct {
	httpClient *resty.Client
	webhookURL string
}

// NewWebhookClient builds an alert client using the provided configuration values.
func NewWebhookClient(cfg config.AlertsConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &WebhookClient{
		httpClient: restyClient,
		webhookURL: cfg.WebhookURL,
	}
}

// lowStockPayload is the webhook body.
type lowStockPayload struct {
	ProductID string `json:"product_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	BoxID     string `json:"box_id"`
	Threshold int    `json:"threshold"`
	At        string `json:"at"`
}

// NotifyLowStock posts the alert for the given record.
func (c *WebhookClient) NotifyLowStock(ctx context.Context, rec models.StockRecord, threshold int) error {
	payload := lowStockPayload{
		ProductID: rec.ProductID,
		ItemName:  rec.ItemName,
		Quantity:  rec.Quantity,
		BoxID:     rec.BoxID,
		Threshold: threshold,
		At:        time.Now().UTC().Format(time.RFC3339),
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("send low-stock alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("low-stock webhook error: status=%d, body=%s", resp.StatusCode(), resp.String())
	}

	return nil
}
