package sqlite_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"testing"
	"time"

	"github.com/safeway/server/internal/safeway/store"
	sqlitestore "github.com/safeway/server/internal/safeway/store/sqlite"
	"github.com/safeway/server/internal/safeway/types"
)

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: basic insert
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_InsertsRow(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	ds := sqlitestore.NewDirectoryStore(conn, w)
	userID, credID := seedUserWithCard(t, ds, "Ana Costa", "RFID004")
	as := sqlitestore.NewAccessEventStore(conn, w)

	now := time.Date(2026, 2, 15, 23, 30, 0, 0, time.UTC)
	hash := sha256.Sum256([]byte("RFID004"))

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		ID:           "ev-1",
		Outcome:      types.OutcomeGranted,
		Location:     "Main Entrance",
		Reason:       "access granted for Ana Costa",
		UserID:       userID,
		CredentialID: credID,
		CardIDHash:   hash[:],
		OccurredAt:   now,
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	got, ok, err := as.GetEvent(context.Background(), "ev-1")
	if err != nil || !ok {
		t.Fatalf("GetEvent: ok=%v err=%v", ok, err)
	}
	if got.Outcome != types.OutcomeGranted {
		t.Errorf("outcome = %q", got.Outcome)
	}
	if got.Location != "Main Entrance" || got.Reason != "access granted for Ana Costa" {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.UserID != userID || got.CredentialID != credID {
		t.Errorf("expected user/cred %s/%s, got %s/%s", userID, credID, got.UserID, got.CredentialID)
	}
	if !bytes.Equal(got.CardIDHash, hash[:]) {
		t.Errorf("card hash mismatch")
	}
	if !got.OccurredAt.Equal(now) {
		t.Errorf("occurred_at = %v, want %v", got.OccurredAt, now)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: nullable fields
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_CardNotFoundHasNoRefs(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	as := sqlitestore.NewAccessEventStore(conn, w)

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		ID:         "ev-1",
		Outcome:    types.OutcomeCardNotFound,
		Location:   "Lobby",
		Reason:     "credential not found for card UNKNOWN999",
		OccurredAt: time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	var userID, credID sql.NullString
	var cardHash []byte
	err = conn.QueryRow(`
SELECT user_id, rfid_credential_id, card_id_hash
FROM access_events WHERE id = 'ev-1'`).Scan(&userID, &credID, &cardHash)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if userID.Valid || credID.Valid {
		t.Errorf("expected NULL refs, got %v %v", userID, credID)
	}
	if cardHash != nil {
		t.Error("expected card_id_hash to be NULL")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordEvent: validation and integrity
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_RecordEvent_RejectsInvalidOutcome(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		ID:       "ev-1",
		Outcome:  types.Outcome("maybe"),
		Location: "Lobby",
	})
	if err == nil {
		t.Fatal("expected error for invalid outcome")
	}
	if n := countRows(t, conn, "access_events"); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

func TestAccessEventStore_RecordEvent_UnknownUserFailsFK(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	err := as.RecordEvent(context.Background(), store.AccessEventRecord{
		ID:       "ev-1",
		Outcome:  types.OutcomeDenied,
		Location: "Lobby",
		Reason:   "user inactive",
		UserID:   "ghost",
	})
	if err == nil {
		t.Fatal("expected foreign key failure")
	}
	if n := countRows(t, conn, "access_events"); n != 0 {
		t.Errorf("expected no rows after failed insert, got %d", n)
	}
}

func TestAccessEventStore_RecordEvent_CancelledContextWritesNothing(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := as.RecordEvent(ctx, store.AccessEventRecord{
		ID:       "ev-1",
		Outcome:  types.OutcomeCardNotFound,
		Location: "Lobby",
	})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if n := countRows(t, conn, "access_events"); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ListEvents
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_ListEvents_NewestFirstWithRange(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	base := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ev-a", "ev-b", "ev-c", "ev-d"} {
		if err := as.RecordEvent(ctx, store.AccessEventRecord{
			ID:         id,
			Outcome:    types.OutcomeCardNotFound,
			Location:   "Lobby",
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("RecordEvent %s: %v", id, err)
		}
	}

	all, err := as.ListEvents(ctx, store.TimeRange{}, store.Page{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(all) != 4 || all[0].ID != "ev-d" || all[3].ID != "ev-a" {
		t.Fatalf("expected newest first, got %v", eventIDs(all))
	}

	ranged, err := as.ListEvents(ctx, store.TimeRange{
		From: base.Add(time.Hour),
		To:   base.Add(2 * time.Hour),
	}, store.Page{})
	if err != nil {
		t.Fatalf("ListEvents range: %v", err)
	}
	if got := eventIDs(ranged); len(got) != 2 || got[0] != "ev-c" || got[1] != "ev-b" {
		t.Errorf("expected [ev-c ev-b], got %v", got)
	}

	paged, err := as.ListEvents(ctx, store.TimeRange{}, store.Page{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListEvents page: %v", err)
	}
	if got := eventIDs(paged); len(got) != 2 || got[0] != "ev-c" || got[1] != "ev-b" {
		t.Errorf("expected [ev-c ev-b], got %v", got)
	}
}

func TestAccessEventStore_GetEvent_Missing(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))

	_, ok, err := as.GetEvent(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if ok {
		t.Error("expected not found")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Append-only
// ═══════════════════════════════════════════════════════════════════════════

func TestAccessEventStore_AppendOnly(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAccessEventStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	for _, id := range []string{"ev-1", "ev-2", "ev-3"} {
		if err := as.RecordEvent(ctx, store.AccessEventRecord{
			ID:       id,
			Outcome:  types.OutcomeCardNotFound,
			Location: "Lobby",
		}); err != nil {
			t.Fatalf("RecordEvent %s: %v", id, err)
		}
	}

	// Re-using an id is rejected rather than overwriting.
	err := as.RecordEvent(ctx, store.AccessEventRecord{
		ID:       "ev-1",
		Outcome:  types.OutcomeGranted,
		Location: "Roof",
	})
	if err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}

	if _, err := conn.Exec(`DELETE FROM access_events`); err == nil {
		t.Error("expected DELETE to be rejected")
	}
	if n := countRows(t, conn, "access_events"); n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
}

func eventIDs(recs []store.AccessEventRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
