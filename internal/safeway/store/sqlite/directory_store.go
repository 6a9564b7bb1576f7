package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	dbpkg "github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/store"
)

// DirectoryStore implements store.UserStore and store.CredentialStore on
// the users and rfid_credentials tables.
type DirectoryStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDirectoryStore(db *sql.DB, writer *dbpkg.Worker) *DirectoryStore {
	return &DirectoryStore{db: db, writer: writer}
}

// ── Users ────────────────────────────────────────────────────────────────────

const userColumns = `id, full_name, email, is_active, created_at_ms, updated_at_ms`

func (s *DirectoryStore) GetUser(ctx context.Context, id string) (store.UserRecord, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.UserRecord{}, false, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?;`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.UserRecord{}, false, nil
	}
	if err != nil {
		return store.UserRecord{}, false, fmt.Errorf("GetUser: %w", err)
	}
	return u, true, nil
}

func (s *DirectoryStore) ListUsers(ctx context.Context, p store.Page) ([]store.UserRecord, error) {
	limit, offset := limitOffset(p)
	rows, err := s.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY created_at_ms, id
LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	out := make([]store.UserRecord, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUsers scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *DirectoryStore) CreateUser(ctx context.Context, rec store.UserRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO users(id, full_name, email, is_active, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.FullName, rec.Email, boolInt(rec.Active), toMs(rec.CreatedAt), optionalMs(rec.UpdatedAt),
		); err != nil {
			return fmt.Errorf("CreateUser: %w", translateErr(err))
		}
		return nil
	})
}

func (s *DirectoryStore) UpdateUser(ctx context.Context, rec store.UserRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE users
SET full_name     = ?,
    email         = ?,
    is_active     = ?,
    updated_at_ms = ?
WHERE id = ?;`,
			rec.FullName, rec.Email, boolInt(rec.Active), optionalMs(rec.UpdatedAt), rec.ID,
		)
		if err != nil {
			return fmt.Errorf("UpdateUser: %w", translateErr(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func scanUser(row rowScanner) (store.UserRecord, error) {
	var (
		u         store.UserRecord
		active    int
		createdMs int64
		updatedMs sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &active, &createdMs, &updatedMs); err != nil {
		return store.UserRecord{}, err
	}
	u.Active = active == 1
	u.CreatedAt = fromMs(createdMs)
	u.UpdatedAt = optionalTime(updatedMs)
	return u, nil
}

// ── Credentials ──────────────────────────────────────────────────────────────

const credentialColumns = `id, user_id, card_id, is_active, has_time_restriction,
  time_window_start, time_window_end, created_at_ms, updated_at_ms`

func (s *DirectoryStore) FindActiveByCardID(ctx context.Context, cardID string) (store.CredentialRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+credentialColumns+`
FROM rfid_credentials
WHERE card_id = ? AND is_active = 1;`, cardID)

	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CredentialRecord{}, false, nil
	}
	if err != nil {
		return store.CredentialRecord{}, false, fmt.Errorf("FindActiveByCardID: %w", err)
	}
	return c, true, nil
}

func (s *DirectoryStore) GetCredential(ctx context.Context, id string) (store.CredentialRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM rfid_credentials WHERE id = ?;`, id)
	c, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.CredentialRecord{}, false, nil
	}
	if err != nil {
		return store.CredentialRecord{}, false, fmt.Errorf("GetCredential: %w", err)
	}
	return c, true, nil
}

func (s *DirectoryStore) ListCredentials(ctx context.Context, p store.Page) ([]store.CredentialRecord, error) {
	limit, offset := limitOffset(p)
	rows, err := s.db.QueryContext(ctx, `
SELECT `+credentialColumns+`
FROM rfid_credentials
ORDER BY created_at_ms, id
LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListCredentials: %w", err)
	}
	defer rows.Close()

	out := make([]store.CredentialRecord, 0)
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("ListCredentials scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DirectoryStore) CreateCredential(ctx context.Context, rec store.CredentialRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO rfid_credentials(
  id, user_id, card_id, is_active, has_time_restriction,
  time_window_start, time_window_end, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.UserID, rec.CardID, boolInt(rec.Active), boolInt(rec.HasTimeRestriction),
			nullString(rec.WindowStart), nullString(rec.WindowEnd), toMs(rec.CreatedAt), optionalMs(rec.UpdatedAt),
		); err != nil {
			return fmt.Errorf("CreateCredential: %w", translateErr(err))
		}
		return nil
	})
}

func (s *DirectoryStore) UpdateCredential(ctx context.Context, rec store.CredentialRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE rfid_credentials
SET card_id              = ?,
    is_active            = ?,
    has_time_restriction = ?,
    time_window_start    = ?,
    time_window_end      = ?,
    updated_at_ms        = ?
WHERE id = ?;`,
			rec.CardID, boolInt(rec.Active), boolInt(rec.HasTimeRestriction),
			nullString(rec.WindowStart), nullString(rec.WindowEnd), optionalMs(rec.UpdatedAt), rec.ID,
		)
		if err != nil {
			return fmt.Errorf("UpdateCredential: %w", translateErr(err))
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *DirectoryStore) ListSyncable(ctx context.Context, p store.Page) ([]store.SyncRecord, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM rfid_credentials c
JOIN users u ON u.id = c.user_id
WHERE c.is_active = 1 AND u.is_active = 1;`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListSyncable count: %w", err)
	}

	limit, offset := limitOffset(p)
	rows, err := s.db.QueryContext(ctx, `
SELECT c.card_id, u.full_name, c.has_time_restriction,
       COALESCE(c.time_window_start, ''), COALESCE(c.time_window_end, '')
FROM rfid_credentials c
JOIN users u ON u.id = c.user_id
WHERE c.is_active = 1 AND u.is_active = 1
ORDER BY c.card_id
LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListSyncable: %w", err)
	}
	defer rows.Close()

	out := make([]store.SyncRecord, 0)
	for rows.Next() {
		var rec store.SyncRecord
		var restricted int
		if err := rows.Scan(&rec.CardID, &rec.UserName, &restricted, &rec.WindowStart, &rec.WindowEnd); err != nil {
			return nil, 0, fmt.Errorf("ListSyncable scan: %w", err)
		}
		rec.HasTimeRestriction = restricted == 1
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func scanCredential(row rowScanner) (store.CredentialRecord, error) {
	var (
		c          store.CredentialRecord
		active     int
		restricted int
		start, end sql.NullString
		createdMs  int64
		updatedMs  sql.NullInt64
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &c.CardID, &active, &restricted,
		&start, &end, &createdMs, &updatedMs,
	); err != nil {
		return store.CredentialRecord{}, err
	}
	c.Active = active == 1
	c.HasTimeRestriction = restricted == 1
	c.WindowStart = start.String
	c.WindowEnd = end.String
	c.CreatedAt = fromMs(createdMs)
	c.UpdatedAt = optionalTime(updatedMs)
	return c, nil
}
