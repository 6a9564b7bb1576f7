package service_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/safeway/server/internal/safeway/service"
	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/store/memory"
	"github.com/safeway/server/internal/safeway/types"
)

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestEvaluate_BusinessHoursGrant(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "João Silva", true)
	addCard(t, f.dir, "c1", "u1", "RFID001", "08:00", "18:00")

	d, err := f.engine.Evaluate(context.Background(), "RFID001", "Main Entrance", at(12, 30))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !d.Granted() {
		t.Fatalf("expected grant, got %q (%s)", d.Record.Outcome, d.Record.Reason)
	}
	if d.Record.Reason != "access granted for João Silva" {
		t.Errorf("reason = %q", d.Record.Reason)
	}
	if d.Record.UserID != "u1" || d.Record.CredentialID != "c1" {
		t.Errorf("expected refs u1/c1, got %q/%q", d.Record.UserID, d.Record.CredentialID)
	}
}

func TestEvaluate_NightShiftWrapsMidnight(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u4", "Ana Costa", true)
	addCard(t, f.dir, "c4", "u4", "RFID004", "22:00", "06:00")

	cases := []struct {
		now     time.Time
		granted bool
	}{
		{at(23, 30), true},
		{at(0, 0), true},
		{at(6, 0), true},
		{at(6, 1), false},
		{at(7, 0), false},
		{at(21, 59), false},
		{at(22, 0), true},
	}
	for _, c := range cases {
		d, err := f.engine.Evaluate(context.Background(), "RFID004", "Warehouse", c.now)
		if err != nil {
			t.Fatalf("Evaluate at %s: %v", c.now.Format("15:04"), err)
		}
		if d.Granted() != c.granted {
			t.Errorf("at %s: granted=%v, want %v (%s)", c.now.Format("15:04"), d.Granted(), c.granted, d.Record.Reason)
		}
		if !c.granted && d.Record.Reason != "outside permitted window 22:00-06:00" {
			t.Errorf("at %s: reason = %q", c.now.Format("15:04"), d.Record.Reason)
		}
	}
}

func TestEvaluate_WindowEdgesInclusive(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Maria Santos", true)
	addCard(t, f.dir, "c1", "u1", "RFID002", "08:00", "18:00")

	cases := map[time.Time]bool{
		at(8, 0):  true,
		at(7, 59): false,
		at(18, 0): true,
		at(18, 1): false,
		time.Date(2026, 2, 15, 18, 0, 59, 0, time.UTC): true,
	}
	for now, want := range cases {
		d, err := f.engine.Evaluate(context.Background(), "RFID002", "Lobby", now)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if d.Granted() != want {
			t.Errorf("at %s: granted=%v, want %v", now.Format("15:04:05"), d.Granted(), want)
		}
	}
}

func TestEvaluate_UnknownCard(t *testing.T) {
	f := newEngineFixture(t)

	d, err := f.engine.Evaluate(context.Background(), "UNKNOWN999", "Main Entrance", at(10, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Record.Outcome != types.OutcomeCardNotFound {
		t.Fatalf("outcome = %q", d.Record.Outcome)
	}
	if d.Record.Reason != "credential not found for card UNKNOWN999" {
		t.Errorf("reason = %q", d.Record.Reason)
	}
	if d.Credential != nil || d.User != nil {
		t.Error("expected no credential or user")
	}

	events := f.events.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.UserID != "" || ev.CredentialID != "" {
		t.Errorf("expected no refs, got %q/%q", ev.UserID, ev.CredentialID)
	}
	want := sha256.Sum256([]byte("UNKNOWN999"))
	if !bytes.Equal(ev.CardIDHash, want[:]) {
		t.Error("expected SHA-256 of card id")
	}
}

func TestEvaluate_InactiveCredentialIsNotFound(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Roberto Alves", true)
	if err := f.dir.CreateCredential(context.Background(), store.CredentialRecord{
		ID: "c1", UserID: "u1", CardID: "RFID007", Active: false,
	}); err != nil {
		t.Fatalf("CreateCredential: %v", err)
	}

	d, err := f.engine.Evaluate(context.Background(), "RFID007", "Lobby", at(10, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Record.Outcome != types.OutcomeCardNotFound {
		t.Errorf("outcome = %q", d.Record.Outcome)
	}
}

func TestEvaluate_InactiveUserDenied(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u9", "Marcos Pereira", false)
	addCard(t, f.dir, "c9", "u9", "RFID009", "", "")

	d, err := f.engine.Evaluate(context.Background(), "RFID009", "Lobby", at(10, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Record.Outcome != types.OutcomeDenied || d.Record.Reason != "user inactive" {
		t.Errorf("got %q %q", d.Record.Outcome, d.Record.Reason)
	}
	if d.Record.UserID != "u9" || d.Record.CredentialID != "c9" {
		t.Errorf("expected refs u9/c9, got %q/%q", d.Record.UserID, d.Record.CredentialID)
	}
}

// Inactive user is checked before the window, so a restricted card of an
// inactive user reports the user, not the window.
func TestEvaluate_InactiveUserBeforeWindow(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Fernanda Lima", false)
	addCard(t, f.dir, "c1", "u1", "RFID008", "12:00", "14:00")

	d, err := f.engine.Evaluate(context.Background(), "RFID008", "Cafeteria", at(9, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Record.Reason != "user inactive" {
		t.Errorf("reason = %q", d.Record.Reason)
	}
}

func TestEvaluate_UnrestrictedIgnoresClock(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Juliana Martins", true)
	addCard(t, f.dir, "c1", "u1", "RFID010", "", "")

	for _, now := range []time.Time{at(0, 0), at(3, 17), at(23, 59)} {
		d, err := f.engine.Evaluate(context.Background(), "RFID010", "Lobby", now)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if !d.Granted() {
			t.Errorf("at %s: expected grant", now.Format("15:04"))
		}
	}
}

func TestEvaluate_UsesConfiguredLocation(t *testing.T) {
	dir := memory.NewDirectoryStore()
	events := memory.NewAccessEventStore()
	engine := service.NewAccessEngine(dir, dir, events, service.EngineConfig{
		Location: time.FixedZone("BRT", -3*60*60),
	}, zap.NewNop())
	addUser(t, dir, "u1", "Pedro Oliveira", true)
	addCard(t, dir, "c1", "u1", "RFID003", "08:00", "18:00")

	// 20:30 UTC is 17:30 at UTC-3.
	d, err := engine.Evaluate(context.Background(), "RFID003", "Lobby", at(20, 30))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !d.Granted() {
		t.Errorf("expected grant in local zone, got %s", d.Record.Reason)
	}
}

// ── Audit ────────────────────────────────────────────────────────────────────

func TestEvaluate_ExactlyOneRecordPerDecision(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Active", true)
	addUser(t, f.dir, "u2", "Inactive", false)
	addCard(t, f.dir, "c1", "u1", "OPEN", "", "")
	addCard(t, f.dir, "c2", "u1", "LUNCH", "12:00", "14:00")
	addCard(t, f.dir, "c3", "u2", "GONE", "", "")

	ctx := context.Background()
	calls := []string{"OPEN", "LUNCH", "GONE", "MISSING"}
	var decisions []service.Decision
	for _, card := range calls {
		d, err := f.engine.Evaluate(ctx, card, "Lobby", at(9, 0))
		if err != nil {
			t.Fatalf("Evaluate %s: %v", card, err)
		}
		decisions = append(decisions, d)
	}

	events := f.events.Events()
	if len(events) != len(calls) {
		t.Fatalf("expected %d events, got %d", len(calls), len(events))
	}
	for i, ev := range events {
		d := decisions[i]
		if ev.ID != d.Record.ID || ev.Outcome != d.Record.Outcome || ev.Reason != d.Record.Reason {
			t.Errorf("event %d does not match decision: %+v vs %+v", i, ev, d.Record)
		}
		if ev.Location != "Lobby" || !ev.OccurredAt.Equal(at(9, 0)) {
			t.Errorf("event %d: location=%q at=%v", i, ev.Location, ev.OccurredAt)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Lucia Rodrigues", true)
	addCard(t, f.dir, "c1", "u1", "RFID006", "06:00", "22:00")

	ctx := context.Background()
	first, err := f.engine.Evaluate(ctx, "RFID006", "Lobby", at(23, 0))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.engine.Evaluate(ctx, "RFID006", "Lobby", at(23, 0))
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.Record.Outcome != second.Record.Outcome || first.Record.Reason != second.Record.Reason {
		t.Errorf("decisions differ: %+v vs %+v", first.Record, second.Record)
	}
	if first.Record.ID == second.Record.ID {
		t.Error("expected distinct decision ids")
	}
	if n := len(f.events.Events()); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestEvaluate_StorageFailureReturnsNoDecision(t *testing.T) {
	dir := memory.NewDirectoryStore()
	events := &failingEventStore{AccessEventStore: memory.NewAccessEventStore()}
	engine := service.NewAccessEngine(dir, dir, events, service.EngineConfig{Location: time.UTC}, zap.NewNop())
	addUser(t, dir, "u1", "João Silva", true)
	addCard(t, dir, "c1", "u1", "RFID001", "", "")

	d, err := engine.Evaluate(context.Background(), "RFID001", "Lobby", at(10, 0))
	if !errors.Is(err, service.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, errDiskFull) {
		t.Errorf("expected underlying cause to survive, got %v", err)
	}
	if d.Granted() || d.Record.ID != "" {
		t.Errorf("expected zero decision, got %+v", d.Record)
	}
	if events.calls != 1 {
		t.Errorf("expected exactly one append attempt, got %d", events.calls)
	}
}

func TestEvaluate_AuditSurvivesCallerCancellation(t *testing.T) {
	dir := memory.NewDirectoryStore()
	events := &ctxRecordingEventStore{AccessEventStore: memory.NewAccessEventStore()}
	engine := service.NewAccessEngine(dir, dir, events, service.EngineConfig{
		Location:          time.UTC,
		AuditWriteTimeout: time.Second,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := engine.Evaluate(ctx, "UNKNOWN", "Lobby", at(10, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if events.sawCancelled {
		t.Error("audit append saw the caller's cancellation")
	}
	if !events.sawDeadline {
		t.Error("expected audit append to be bounded by the write timeout")
	}
	if d.Record.ID == "" || len(events.Events()) != 1 {
		t.Error("expected the decision to be recorded")
	}
}

// ── Configuration errors ─────────────────────────────────────────────────────

func TestEvaluate_MalformedWindowIsConfigurationError(t *testing.T) {
	f := newEngineFixture(t)
	addUser(t, f.dir, "u1", "Carlos Ferreira", true)
	addCard(t, f.dir, "c1", "u1", "BAD1", "25:00", "06:00")
	addCard(t, f.dir, "c2", "u1", "BAD2", "22:00", "")

	for _, card := range []string{"BAD1", "BAD2"} {
		_, err := f.engine.Evaluate(context.Background(), card, "Lobby", at(10, 0))
		if !errors.Is(err, service.ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", card, err)
		}
	}
	if n := len(f.events.Events()); n != 0 {
		t.Errorf("expected no audit records, got %d", n)
	}
}

func TestEvaluate_MissingOwnerIsConfigurationError(t *testing.T) {
	creds := memory.NewDirectoryStore()
	users := memory.NewDirectoryStore()
	events := memory.NewAccessEventStore()
	engine := service.NewAccessEngine(creds, users, events, service.EngineConfig{Location: time.UTC}, zap.NewNop())

	addUser(t, creds, "u1", "Elsewhere", true)
	addCard(t, creds, "c1", "u1", "ORPHAN", "", "")

	_, err := engine.Evaluate(context.Background(), "ORPHAN", "Lobby", at(10, 0))
	if !errors.Is(err, service.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if n := len(events.Events()); n != 0 {
		t.Errorf("expected no audit records, got %d", n)
	}
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidate_RejectsBlankInputWithoutRecord(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: "  ", Location: "Lobby"})
	if !errors.Is(err, service.ErrInvalidCardID) {
		t.Errorf("expected ErrInvalidCardID, got %v", err)
	}
	_, err = f.engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: "RFID001", Location: ""})
	if !errors.Is(err, service.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
	if n := len(f.events.Events()); n != 0 {
		t.Errorf("expected no audit records, got %d", n)
	}
}

func TestValidate_ResponseShape(t *testing.T) {
	dir := memory.NewDirectoryStore()
	events := memory.NewAccessEventStore()
	engine := service.NewAccessEngine(dir, dir, events, service.EngineConfig{
		Location: time.UTC,
		Now:      func() time.Time { return at(12, 30) },
	}, zap.NewNop())
	addUser(t, dir, "u1", "João Silva", true)
	addCard(t, dir, "c1", "u1", "RFID001", "08:00", "18:00")
	addCard(t, dir, "c2", "u1", "RFID011", "", "")
	addUser(t, dir, "u2", "Fernanda Lima", false)
	addCard(t, dir, "c3", "u2", "RFID008", "12:00", "14:00")

	resp, err := engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: " RFID001 ", Location: "Main Entrance"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !resp.AccessGranted || resp.Outcome != types.OutcomeGranted {
		t.Errorf("expected grant, got %+v", resp)
	}
	if resp.UserName != "João Silva" || resp.UserEmail != "u1@example.com" {
		t.Errorf("unexpected user fields: %+v", resp)
	}
	if !resp.HasTimeRestriction || resp.TimeWindowStart != "08:00" || resp.TimeWindowEnd != "18:00" {
		t.Errorf("unexpected window fields: %+v", resp)
	}
	if resp.DecisionID == "" || resp.ServerTime != "2026-02-15T12:30:00Z" {
		t.Errorf("unexpected id/time: %q %q", resp.DecisionID, resp.ServerTime)
	}

	open, err := engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: "RFID011", Location: "Main Entrance"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if open.HasTimeRestriction || open.TimeWindowStart != "00:00" || open.TimeWindowEnd != "23:59" {
		t.Errorf("expected default window for unrestricted card, got %+v", open)
	}

	inactive, err := engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: "RFID008", Location: "Main Entrance"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if inactive.AccessGranted || inactive.Message != "user inactive" {
		t.Errorf("expected user inactive denial, got %+v", inactive)
	}
	if !inactive.HasTimeRestriction || inactive.TimeWindowStart != "12:00" || inactive.TimeWindowEnd != "14:00" {
		t.Errorf("expected stored window for restricted card, got %+v", inactive)
	}

	missing, err := engine.Validate(context.Background(), types.ValidateAccessRequest{CardID: "NOPE", Location: "Main Entrance"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if missing.UserID != "" || missing.TimeWindowStart != "" || missing.AccessGranted {
		t.Errorf("expected bare card_not_found response, got %+v", missing)
	}
}

// ── Logging ──────────────────────────────────────────────────────────────────

func TestEvaluate_LogsDecision(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dir := memory.NewDirectoryStore()
	engine := service.NewAccessEngine(dir, dir, memory.NewAccessEventStore(), service.EngineConfig{Location: time.UTC}, zap.New(core))

	if _, err := engine.Evaluate(context.Background(), "UNKNOWN", "Lobby", at(10, 0)); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	entries := logs.FilterMessage("access decision").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 decision log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["outcome"] != string(types.OutcomeCardNotFound) || fields["location"] != "Lobby" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if _, ok := fields["card_id"]; ok {
		t.Error("card id must not be logged")
	}
}
