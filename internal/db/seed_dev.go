package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// seedNamespace keeps dev ids stable across restarts so re-seeding is a no-op.
var seedNamespace = uuid.MustParse("6f1c1c7e-6a51-4d8e-9a0b-52a3e1f0c0de")

type seedUser struct {
	name        string
	email       string
	cardID      string
	windowStart string // empty = unrestricted
	windowEnd   string
}

var devUsers = []seedUser{
	{"João Silva", "joao.silva@empresa.com", "RFID001", "08:00", "18:00"},
	{"Maria Santos", "maria.santos@empresa.com", "RFID002", "08:00", "18:00"},
	{"Pedro Oliveira", "pedro.oliveira@empresa.com", "RFID003", "08:00", "18:00"},
	{"Ana Costa", "ana.costa@empresa.com", "RFID004", "22:00", "06:00"},
	{"Carlos Ferreira", "carlos.ferreira@empresa.com", "RFID005", "22:00", "06:00"},
	{"Lucia Rodrigues", "lucia.rodrigues@empresa.com", "RFID006", "06:00", "22:00"},
	{"Roberto Alves", "roberto.alves@empresa.com", "RFID007", "06:00", "22:00"},
	{"Fernanda Lima", "fernanda.lima@empresa.com", "RFID008", "12:00", "14:00"},
	{"Marcos Pereira", "marcos.pereira@empresa.com", "RFID009", "", ""},
	{"Juliana Martins", "juliana.martins@empresa.com", "RFID010", "", ""},
}

// SeedDev inserts ten users with one card each, covering business hours,
// a night shift that wraps midnight, an extended day, a lunch-only window
// and two unrestricted cards. Existing rows are left alone.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range devUsers {
		userID := uuid.NewSHA1(seedNamespace, []byte("user:"+u.email)).String()
		credID := uuid.NewSHA1(seedNamespace, []byte("card:"+u.cardID)).String()

		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO users(id, full_name, email, is_active, created_at_ms)
VALUES (?, ?, ?, 1, ?);`, userID, u.name, u.email, now); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}

		restricted := 0
		var start, end any
		if u.windowStart != "" {
			restricted = 1
			start, end = u.windowStart, u.windowEnd
		}

		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO rfid_credentials(
  id, user_id, card_id, is_active,
  has_time_restriction, time_window_start, time_window_end,
  created_at_ms
) VALUES (?, ?, ?, 1, ?, ?, ?, ?);`,
			credID, userID, u.cardID, restricted, start, end, now,
		); err != nil {
			return fmt.Errorf("seed card %s: %w", u.cardID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	return nil
}
