package models

import "time"

// MovementReport aggregates one day of audit activity.
type MovementReport struct {
	Date         time.Time `bson:"date" json:"date"`
	Receipts     int       `bson:"receipts" json:"receipts"`
	ReceiptUnits int       `bson:"receipt_units" json:"receipt_units"`
	Orders       int       `bson:"orders" json:"orders"`
	OrderUnits   int       `bson:"order_units" json:"order_units"`
	Products     int       `bson:"products" json:"products"`
	GeneratedAt  time.Time `bson:"generated_at" json:"generated_at"`
}
