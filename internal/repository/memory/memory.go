package memory

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/007AHA007/Inventory/internal/domain/models"
	"github.com/007AHA007/Inventory/internal/domain/repository"
)

// AuditLog is an in-memory append-only audit trail. Safe for concurrent use.
type AuditLog struct {
	mu      sync.RWMutex
	seq     int64
	entries []models.AuditEntry
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Append assigns the next sequence and stores the entry.
func (l *AuditLog) Append(_ context.Context, entry models.AuditEntry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry.SequenceID = l.seq
	l.entries = append(l.entries, entry)
	return l.seq, nil
}

// QueryByProduct yields entries for one product in sequence order. Each
// iteration works on a fresh snapshot, so the sequence is restartable.
func (l *AuditLog) QueryByProduct(_ context.Context, productID string) iter.Seq2[models.AuditEntry, error] {
	return func(yield func(models.AuditEntry, error) bool) {
		for _, entry := range l.snapshot() {
			if entry.ProductID != productID {
				continue
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// QueryRange yields entries with from <= Timestamp < to in sequence order.
func (l *AuditLog) QueryRange(_ context.Context, from, to time.Time) iter.Seq2[models.AuditEntry, error] {
	return func(yield func(models.AuditEntry, error) bool) {
		for _, entry := range l.snapshot() {
			if entry.Timestamp.Before(from) || !entry.Timestamp.Before(to) {
				continue
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (l *AuditLog) snapshot() []models.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

type slot struct {
	mu     sync.Mutex
	rec    models.StockRecord
	exists bool
}

// Store is an in-memory StockStore keyed by product ID. Every mutation for
// one product runs under that product's lock; the record write and the
// audit append complete before the lock is released, so the pairing
// invariant holds and distinct products never contend.
type Store struct {
	mu    sync.Mutex
	slots map[string]*slot
	audit repository.AuditLog
}

// NewStore creates a store that appends mutations to the given audit log.
func NewStore(audit repository.AuditLog) *Store {
	return &Store{
		slots: make(map[string]*slot),
		audit: audit,
	}
}

// Get returns the current record for productID.
func (s *Store) Get(_ context.Context, productID string) (models.StockRecord, error) {
	sl := s.slot(productID)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if !sl.exists {
		return models.StockRecord{}, fmt.Errorf("product %s: %w", productID, models.ErrNotFound)
	}
	return sl.rec, nil
}

// List returns every record ordered by product ID.
func (s *Store) List(_ context.Context) ([]models.StockRecord, error) {
	s.mu.Lock()
	slots := make([]*slot, 0, len(s.slots))
	for _, sl := range s.slots {
		slots = append(slots, sl)
	}
	s.mu.Unlock()

	out := make([]models.StockRecord, 0, len(slots))
	for _, sl := range slots {
		sl.mu.Lock()
		if sl.exists {
			out = append(out, sl.rec)
		}
		sl.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Mutate applies fn to the current record and commits the result together
// with its audit entry.
func (s *Store) Mutate(ctx context.Context, productID string, fn repository.MutationFunc) (models.StockRecord, models.AuditEntry, error) {
	sl := s.slot(productID)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	updated, entry, err := fn(sl.rec, sl.exists)
	if err != nil {
		return models.StockRecord{}, models.AuditEntry{}, err
	}

	seq, err := s.audit.Append(ctx, entry)
	if err != nil {
		return models.StockRecord{}, models.AuditEntry{}, fmt.Errorf("%w: append audit entry: %v", models.ErrPersistence, err)
	}
	entry.SequenceID = seq

	sl.rec = updated
	sl.exists = true
	return updated, entry, nil
}

func (s *Store) slot(productID string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[productID]
	if !ok {
		sl = &slot{}
		s.slots[productID] = sl
	}
	return sl
}
