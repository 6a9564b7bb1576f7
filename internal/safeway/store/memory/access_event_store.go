package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/safeway/server/internal/safeway/store"
)

// AccessEventStore is an in-memory append-only log of access decisions.
// It is intended for use in tests and dev environments.
type AccessEventStore struct {
	mu     sync.RWMutex
	events []store.AccessEventRecord
}

func NewAccessEventStore() *AccessEventStore {
	return &AccessEventStore{}
}

func (s *AccessEventStore) RecordEvent(_ context.Context, rec store.AccessEventRecord) error {
	rec.CardIDHash = append([]byte(nil), rec.CardIDHash...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, rec)
	return nil
}

func (s *AccessEventStore) GetEvent(_ context.Context, id string) (store.AccessEventRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true, nil
		}
	}
	return store.AccessEventRecord{}, false, nil
}

func (s *AccessEventStore) ListEvents(_ context.Context, r store.TimeRange, p store.Page) ([]store.AccessEventRecord, error) {
	s.mu.RLock()
	out := make([]store.AccessEventRecord, 0, len(s.events))
	for _, ev := range s.events {
		if r.Contains(ev.OccurredAt) {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return paginate(out, p), nil
}

// Events returns a copy of all recorded events in insertion order.  Test-only helper.
func (s *AccessEventStore) Events() []store.AccessEventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.AccessEventRecord, len(s.events))
	copy(out, s.events)
	return out
}

func paginate[T any](in []T, p store.Page) []T {
	if p.Offset >= len(in) {
		return []T{}
	}
	if p.Offset > 0 {
		in = in[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(in) {
		in = in[:p.Limit]
	}
	return in
}
