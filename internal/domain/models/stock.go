package models

import "time"

// StockRecord holds the current quantity and metadata for one product.
type StockRecord struct {
	ProductID string    `bson:"_id" json:"product_id"`
	ItemName  string    `bson:"item_name" json:"item_name"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	BoxID     string    `bson:"box_id" json:"box_id"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MutationKind classifies a stock mutation.
type MutationKind string

const (
	// MutationReceipt increases stock (restock).
	MutationReceipt MutationKind = "Receipt"
	// MutationOrder decreases stock (fulfillment).
	MutationOrder MutationKind = "Order"
)

// AuditEntry is the immutable record of one stock mutation. Exactly one
// entry exists per successful mutation; NewQuantity-OldQuantity equals the
// signed delta applied to the record in the same unit of work.
type AuditEntry struct {
	SequenceID  int64        `bson:"sequence_id" json:"sequence_id"`
	ProductID   string       `bson:"product_id" json:"product_id"`
	ItemName    string       `bson:"item_name" json:"item_name"`
	OldQuantity int          `bson:"old_quantity" json:"old_quantity"`
	NewQuantity int          `bson:"new_quantity" json:"new_quantity"`
	Kind        MutationKind `bson:"kind" json:"kind"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
}
