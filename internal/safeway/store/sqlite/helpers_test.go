package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/store"
	sqlitestore "github.com/safeway/server/internal/safeway/store/sqlite"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production. The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each test gets its own named in-memory database. The shared-cache URI
	// keeps it alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		strings.ReplaceAll(t.Name(), "/", "_"),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn. The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedUserWithCard inserts an active user owning one active card and
// returns both ids.
func seedUserWithCard(t *testing.T, ds *sqlitestore.DirectoryStore, name, cardID string) (userID, credID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	userID = "user-" + cardID
	credID = "cred-" + cardID

	if err := ds.CreateUser(ctx, store.UserRecord{
		ID:        userID,
		FullName:  name,
		Email:     strings.ToLower(cardID) + "@example.com",
		Active:    true,
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	if err := ds.CreateCredential(ctx, store.CredentialRecord{
		ID:        credID,
		UserID:    userID,
		CardID:    cardID,
		Active:    true,
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed card %s: %v", cardID, err)
	}
	return userID, credID
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
