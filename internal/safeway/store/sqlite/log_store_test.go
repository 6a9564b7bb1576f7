package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/safeway/server/internal/safeway/store"
	sqlitestore "github.com/safeway/server/internal/safeway/store/sqlite"
	"github.com/safeway/server/internal/safeway/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// ErrorLogStore
// ═══════════════════════════════════════════════════════════════════════════

func TestErrorLogStore_RecordAndFilter(t *testing.T) {
	conn := openTestDB(t)
	es := sqlitestore.NewErrorLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	recs := []store.ErrorLogRecord{
		{ID: "e1", ErrorType: "reader_timeout", Component: "reader", Severity: types.SeverityLow, ReportedAt: base},
		{ID: "e2", ErrorType: "lock_jam", Component: "lock", Severity: types.SeverityHigh, ReportedAt: base.Add(time.Minute)},
		{ID: "e3", ErrorType: "reader_crc", Component: "reader", Severity: types.SeverityHigh, ReportedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range recs {
		if err := es.RecordError(ctx, r); err != nil {
			t.Fatalf("RecordError %s: %v", r.ID, err)
		}
	}

	high, err := es.ListErrors(ctx, store.ErrorLogFilter{Severity: types.SeverityHigh}, store.Page{})
	if err != nil {
		t.Fatalf("ListErrors: %v", err)
	}
	if len(high) != 2 || high[0].ID != "e3" || high[1].ID != "e2" {
		t.Errorf("expected [e3 e2], got %+v", high)
	}

	reader, err := es.ListErrors(ctx, store.ErrorLogFilter{
		Component: "reader",
		Range:     store.TimeRange{To: base.Add(30 * time.Second)},
	}, store.Page{})
	if err != nil {
		t.Fatalf("ListErrors: %v", err)
	}
	if len(reader) != 1 || reader[0].ID != "e1" {
		t.Errorf("expected [e1], got %+v", reader)
	}

	got, ok, err := es.GetError(ctx, "e2")
	if err != nil || !ok {
		t.Fatalf("GetError: ok=%v err=%v", ok, err)
	}
	if got.Severity != types.SeverityHigh || !got.ReportedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestErrorLogStore_RejectsUnknownSeverity(t *testing.T) {
	conn := openTestDB(t)
	es := sqlitestore.NewErrorLogStore(conn, newTestWriter(t, conn))

	err := es.RecordError(context.Background(), store.ErrorLogRecord{
		ID: "e1", ErrorType: "x", Component: "y", Severity: types.Severity("urgent"),
	})
	if err == nil {
		t.Fatal("expected CHECK failure for unknown severity")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// HTTPLogStore
// ═══════════════════════════════════════════════════════════════════════════

func TestHTTPLogStore_PruneOlderThan(t *testing.T) {
	conn := openTestDB(t)
	hs := sqlitestore.NewHTTPLogStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour, 0} {
		if err := hs.RecordRequest(ctx, store.HTTPLogRecord{
			ID:         "r" + string(rune('a'+i)),
			Method:     "POST",
			Endpoint:   "/api/v1/rfid/validate-access",
			StatusCode: 200,
			Payload:    `{"card_id":"RFID001"}`,
			ReceivedAt: now.Add(-age),
		}); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
	}

	deleted, err := hs.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	left, err := hs.ListRequests(ctx, store.Page{})
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(left) != 2 || left[0].ID != "rd" || left[1].ID != "rc" {
		t.Errorf("unexpected survivors: %+v", left)
	}
	if left[0].Payload != `{"card_id":"RFID001"}` {
		t.Errorf("payload = %q", left[0].Payload)
	}
}
