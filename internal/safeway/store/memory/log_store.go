package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/safeway/server/internal/safeway/store"
)

type ErrorLogStore struct {
	mu   sync.RWMutex
	data []store.ErrorLogRecord
}

func NewErrorLogStore() *ErrorLogStore {
	return &ErrorLogStore{}
}

func (s *ErrorLogStore) RecordError(_ context.Context, rec store.ErrorLogRecord) error {
	if rec.ReportedAt.IsZero() {
		rec.ReportedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, rec)
	return nil
}

func (s *ErrorLogStore) GetError(_ context.Context, id string) (store.ErrorLogRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.data {
		if rec.ID == id {
			return rec, true, nil
		}
	}
	return store.ErrorLogRecord{}, false, nil
}

func (s *ErrorLogStore) ListErrors(_ context.Context, f store.ErrorLogFilter, p store.Page) ([]store.ErrorLogRecord, error) {
	s.mu.RLock()
	out := make([]store.ErrorLogRecord, 0, len(s.data))
	for _, rec := range s.data {
		if f.Severity != "" && rec.Severity != f.Severity {
			continue
		}
		if f.Component != "" && rec.Component != f.Component {
			continue
		}
		if !f.Range.Contains(rec.ReportedAt) {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return paginate(out, p), nil
}

// HTTPLogStore keeps request log rows in memory.
type HTTPLogStore struct {
	mu   sync.RWMutex
	data []store.HTTPLogRecord
}

func NewHTTPLogStore() *HTTPLogStore {
	return &HTTPLogStore{}
}

func (s *HTTPLogStore) RecordRequest(_ context.Context, rec store.HTTPLogRecord) error {
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, rec)
	return nil
}

func (s *HTTPLogStore) ListRequests(_ context.Context, p store.Page) ([]store.HTTPLogRecord, error) {
	s.mu.RLock()
	out := make([]store.HTTPLogRecord, len(s.data))
	copy(out, s.data)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return paginate(out, p), nil
}

func (s *HTTPLogStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data[:0]
	var deleted int64
	for _, rec := range s.data {
		if rec.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.data = kept
	return deleted, nil
}
