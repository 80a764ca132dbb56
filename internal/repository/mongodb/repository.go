package mongodb

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/domain/repository"
)

const (
	stockCollection    = "stock"
	auditCollection    = "audit_log"
	countersCollection = "counters"
	sequenceKey        = "audit_sequence"

	// Bounded retry for the per-document compare-and-swap. A lost race
	// re-reads and re-applies the mutation; exhaustion surfaces as a
	// persistence failure rather than waiting indefinitely.
	mutateAttempts = 4
)

var errConflict = errors.New("concurrent modification")

// Store is the MongoDB-backed StockStore. Each mutation runs a
// compare-and-swap on the stored quantity inside a session transaction
// that also appends the audit entry, so the record write and the entry
// become visible together or not at all.
type Store struct {
	client *mongo.Client
	stock  *mongo.Collection
	audit  *AuditLog
	logger *zap.Logger
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	return &Store{
		client: client,
		stock:  db.Collection(stockCollection),
		audit: &AuditLog{
			entries:  db.Collection(auditCollection),
			counters: db.Collection(countersCollection),
		},
		logger: logger,
	}, nil
}

// Audit exposes the audit log sharing this store's connection.
func (s *Store) Audit() *AuditLog { return s.audit }

// EnsureIndexes creates the indexes the query paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.audit.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sequence_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "sequence_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}

	// Seed the sequence counter outside any transaction. Appends run
	// transactionally and must never implicitly create the collection.
	_, err = s.audit.counters.UpdateOne(ctx,
		bson.M{"_id": sequenceKey},
		bson.M{"$setOnInsert": bson.M{"value": int64(0)}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("seed audit sequence counter: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Get returns the current record for productID.
func (s *Store) Get(ctx context.Context, productID string) (models.StockRecord, error) {
	var rec models.StockRecord
	err := s.stock.FindOne(ctx, bson.M{"_id": productID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StockRecord{}, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}
	if err != nil {
		return models.StockRecord{}, fmt.Errorf("%w: load product %s: %v", models.ErrPersistence, productID, err)
	}
	return rec, nil
}

// List returns every record ordered by product ID.
func (s *Store) List(ctx context.Context) ([]models.StockRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.stock.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", models.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	var out []models.StockRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", models.ErrPersistence, err)
	}
	return out, nil
}

// Mutate applies fn to the current record for productID and persists the
// result together with its audit entry. Errors returned by fn abort the
// transaction and pass through unchanged.
func (s *Store) Mutate(ctx context.Context, productID string, fn repository.MutationFunc) (models.StockRecord, models.AuditEntry, error) {
	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		rec, entry, err := s.mutateOnce(ctx, productID, fn)
		if err == nil {
			return rec, entry, nil
		}
		if !errors.Is(err, errConflict) {
			return models.StockRecord{}, models.AuditEntry{}, err
		}
		lastErr = err
		s.logger.Debug("stock mutation lost cas race, retrying",
			zap.String("product_id", productID), zap.Int("attempt", attempt+1))
	}
	return models.StockRecord{}, models.AuditEntry{},
		fmt.Errorf("%w: mutate product %s: %v", models.ErrPersistence, productID, lastErr)
}

type mutationResult struct {
	rec   models.StockRecord
	entry models.AuditEntry
}

func (s *Store) mutateOnce(ctx context.Context, productID string, fn repository.MutationFunc) (models.StockRecord, models.AuditEntry, error) {
	session, err := s.client.StartSession()
	if err != nil {
		return models.StockRecord{}, models.AuditEntry{}, fmt.Errorf("%w: start session: %v", models.ErrPersistence, err)
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var current models.StockRecord
		exists := true
		if err := s.stock.FindOne(sc, bson.M{"_id": productID}).Decode(&current); err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("%w: load product %s: %v", models.ErrPersistence, productID, err)
			}
			current = models.StockRecord{}
			exists = false
		}

		updated, entry, err := fn(current, exists)
		if err != nil {
			return nil, err
		}

		if exists {
			// Conditional on the quantity just observed; a lost race
			// matches nothing and retries from a fresh read.
			result, err := s.stock.UpdateOne(sc,
				bson.M{"_id": productID, "quantity": current.Quantity},
				bson.M{"$set": bson.M{
					"item_name":  updated.ItemName,
					"quantity":   updated.Quantity,
					"box_id":     updated.BoxID,
					"updated_at": updated.UpdatedAt,
				}})
			if err != nil {
				return nil, fmt.Errorf("%w: update product %s: %v", models.ErrPersistence, productID, err)
			}
			if result.MatchedCount == 0 {
				return nil, errConflict
			}
		} else {
			if _, err := s.stock.InsertOne(sc, updated); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return nil, errConflict
				}
				return nil, fmt.Errorf("%w: insert product %s: %v", models.ErrPersistence, productID, err)
			}
		}

		seq, err := s.audit.Append(sc, entry)
		if err != nil {
			return nil, err
		}
		entry.SequenceID = seq

		return mutationResult{rec: updated, entry: entry}, nil
	})
	if err != nil {
		return models.StockRecord{}, models.AuditEntry{}, err
	}

	out := res.(mutationResult)
	return out.rec, out.entry, nil
}

// AuditLog is the MongoDB-backed append-only audit trail. Sequence numbers
// come from a counter document incremented in the same unit of work as the
// entry insert, so they stay monotonic across committed mutations.
type AuditLog struct {
	entries  *mongo.Collection
	counters *mongo.Collection
}

// Append assigns the next sequence and inserts the entry.
func (l *AuditLog) Append(ctx context.Context, entry models.AuditEntry) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := l.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequenceKey},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("%w: allocate audit sequence: %v", models.ErrPersistence, err)
	}

	entry.SequenceID = counter.Value
	if _, err := l.entries.InsertOne(ctx, entry); err != nil {
		return 0, fmt.Errorf("%w: append audit entry: %v", models.ErrPersistence, err)
	}
	return counter.Value, nil
}

// QueryByProduct yields entries for one product ordered by sequence
// ascending. Each iteration issues a fresh query, so the sequence is
// restartable.
func (l *AuditLog) QueryByProduct(ctx context.Context, productID string) iter.Seq2[models.AuditEntry, error] {
	return l.query(ctx, bson.M{"product_id": productID})
}

// QueryRange yields entries with from <= Timestamp < to ordered by
// sequence ascending.
func (l *AuditLog) QueryRange(ctx context.Context, from, to time.Time) iter.Seq2[models.AuditEntry, error] {
	return l.query(ctx, bson.M{"timestamp": bson.M{"$gte": from, "$lt": to}})
}

func (l *AuditLog) query(ctx context.Context, filter bson.M) iter.Seq2[models.AuditEntry, error] {
	return func(yield func(models.AuditEntry, error) bool) {
		opts := options.Find().SetSort(bson.D{{Key: "sequence_id", Value: 1}})
		cur, err := l.entries.Find(ctx, filter, opts)
		if err != nil {
			yield(models.AuditEntry{}, fmt.Errorf("%w: query audit entries: %v", models.ErrPersistence, err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var entry models.AuditEntry
			if err := cur.Decode(&entry); err != nil {
				yield(models.AuditEntry{}, fmt.Errorf("%w: decode audit entry: %v", models.ErrPersistence, err))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(models.AuditEntry{}, fmt.Errorf("%w: iterate audit entries: %v", models.ErrPersistence, err))
		}
	}
}
