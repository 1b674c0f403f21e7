// Package audit records every attempted transition, successful or
// rejected, as immutable append-only entries. External reporting and
// dispute tooling read them back in order.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

// Store is the persistence port for audit entries. Entries are never
// updated or deleted.
type Store interface {
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, txID string) ([]*models.AuditEntry, error)
}

// NewEntry builds an entry. Rejected attempts keep from==to with the
// failure reason; applied entries carry the actual transition.
func NewEntry(txID string, from, to models.TransactionStatus, actor models.Actor, outcome, reason string, now time.Time) *models.AuditEntry {
	return &models.AuditEntry{
		EntryID:    uuid.NewString(),
		TxID:       txID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Outcome:    outcome,
		Reason:     reason,
		RecordedAt: now.UTC(),
	}
}

// Feed is an in-process broadcast of appended entries, consumed by the
// websocket audit stream. Slow subscribers miss entries rather than block
// the writer; the durable record is always the store.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan *models.AuditEntry]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan *models.AuditEntry]struct{})}
}

func (f *Feed) Subscribe(txID string) chan *models.AuditEntry {
	ch := make(chan *models.AuditEntry, 16)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[txID] == nil {
		f.subs[txID] = make(map[chan *models.AuditEntry]struct{})
	}
	f.subs[txID][ch] = struct{}{}
	return ch
}

func (f *Feed) Unsubscribe(txID string, ch chan *models.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.subs[txID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(f.subs, txID)
		}
	}
	close(ch)
}

func (f *Feed) Publish(entry *models.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[entry.TxID] {
		select {
		case ch <- entry:
		default:
		}
	}
}
