package repository

import (
	"context"
	"iter"
	"time"

	"github.com/007AHA007/Inventory/internal/domain/models"
)

// MutationFunc computes the next state of a stock record together with the
// audit entry describing the change. current is the zero value when exists
// is false. Returning an error aborts the mutation with no state change.
type MutationFunc func(current models.StockRecord, exists bool) (models.StockRecord, models.AuditEntry, error)

// StockStore is the persistence contract for stock records. Mutate is the
// only write path: it applies fn under a per-product atomic conditional
// update and persists the returned record and audit entry as one unit of
// work, so a successful mutation and its entry are never observable apart.
// Mutations on distinct products proceed in parallel.
type StockStore interface {
	Get(ctx context.Context, productID string) (models.StockRecord, error)
	// List returns every record ordered by product ID.
	List(ctx context.Context) ([]models.StockRecord, error)
	Mutate(ctx context.Context, productID string, fn MutationFunc) (models.StockRecord, models.AuditEntry, error)
}

// AuditLog is the append-only mutation trail. No update or delete is
// exposed. Append is invoked by the stock store inside the same unit of
// work as the record write and assigns the monotonic sequence.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry) (int64, error)
	// QueryByProduct yields entries for one product ordered by sequence
	// ascending. The sequence is lazy and restartable.
	QueryByProduct(ctx context.Context, productID string) iter.Seq2[models.AuditEntry, error]
	// QueryRange yields entries with from <= Timestamp < to, ordered by
	// sequence ascending.
	QueryRange(ctx context.Context, from, to time.Time) iter.Seq2[models.AuditEntry, error]
}
