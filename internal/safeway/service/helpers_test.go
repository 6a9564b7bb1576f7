package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/service"
	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/store/memory"
)

var errDiskFull = errors.New("disk full")

// failingEventStore rejects every append.
type failingEventStore struct {
	*memory.AccessEventStore
	calls int
}

func (f *failingEventStore) RecordEvent(context.Context, store.AccessEventRecord) error {
	f.calls++
	return errDiskFull
}

// ctxRecordingEventStore records whether the context it was given was
// already cancelled.
type ctxRecordingEventStore struct {
	*memory.AccessEventStore
	sawCancelled bool
	sawDeadline  bool
}

func (s *ctxRecordingEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	s.sawCancelled = ctx.Err() != nil
	_, s.sawDeadline = ctx.Deadline()
	return s.AccessEventStore.RecordEvent(ctx, rec)
}

type engineFixture struct {
	engine *service.AccessEngine
	dir    *memory.DirectoryStore
	events *memory.AccessEventStore
}

// newEngineFixture builds an engine on in-memory stores evaluating in UTC.
func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()
	dir := memory.NewDirectoryStore()
	events := memory.NewAccessEventStore()
	engine := service.NewAccessEngine(dir, dir, events, service.EngineConfig{
		Location: time.UTC,
	}, zap.NewNop())
	return engineFixture{engine: engine, dir: dir, events: events}
}

// addUser registers an active or inactive user directly in the store.
func addUser(t *testing.T, dir *memory.DirectoryStore, id, name string, active bool) {
	t.Helper()
	if err := dir.CreateUser(context.Background(), store.UserRecord{
		ID:       id,
		FullName: name,
		Email:    id + "@example.com",
		Active:   active,
	}); err != nil {
		t.Fatalf("CreateUser %s: %v", id, err)
	}
}

// addCard registers an active card. Empty start and end mean unrestricted.
func addCard(t *testing.T, dir *memory.DirectoryStore, id, userID, cardID, start, end string) {
	t.Helper()
	if err := dir.CreateCredential(context.Background(), store.CredentialRecord{
		ID:                 id,
		UserID:             userID,
		CardID:             cardID,
		Active:             true,
		HasTimeRestriction: start != "" || end != "",
		WindowStart:        start,
		WindowEnd:          end,
	}); err != nil {
		t.Fatalf("CreateCredential %s: %v", cardID, err)
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 2, 15, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
