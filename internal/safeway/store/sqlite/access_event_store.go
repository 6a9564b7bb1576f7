package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbpkg "github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/types"
)

type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Worker) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

// RecordEvent appends one row in its own transaction. The table carries
// triggers that reject UPDATE and DELETE.
func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	if rec.ID == "" {
		return errors.New("RecordEvent: id is required")
	}
	if !rec.Outcome.Valid() {
		return fmt.Errorf("RecordEvent: invalid outcome %q", rec.Outcome)
	}

	var cardIDHash any
	if len(rec.CardIDHash) == 32 {
		cardIDHash = rec.CardIDHash
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(
  id, event_type, location, description,
  user_id, rfid_credential_id, card_id_hash, occurred_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, string(rec.Outcome), rec.Location, rec.Reason,
			nullString(rec.UserID), nullString(rec.CredentialID), cardIDHash, toMs(rec.OccurredAt),
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", translateErr(err))
		}
		return nil
	})
}

const accessEventColumns = `id, event_type, location, description, user_id, rfid_credential_id, card_id_hash, occurred_at_ms`

func (s *AccessEventStore) GetEvent(ctx context.Context, id string) (store.AccessEventRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accessEventColumns+` FROM access_events WHERE id = ?;`, id)
	rec, err := scanAccessEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AccessEventRecord{}, false, nil
	}
	if err != nil {
		return store.AccessEventRecord{}, false, fmt.Errorf("GetEvent: %w", err)
	}
	return rec, true, nil
}

func (s *AccessEventStore) ListEvents(ctx context.Context, r store.TimeRange, p store.Page) ([]store.AccessEventRecord, error) {
	where, args := rangeClause("occurred_at_ms", r, nil, nil)
	limit, offset := limitOffset(p)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
SELECT `+accessEventColumns+`
FROM access_events
`+whereSQL(where)+`
ORDER BY occurred_at_ms DESC
LIMIT ? OFFSET ?;`, args...)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	defer rows.Close()

	out := make([]store.AccessEventRecord, 0)
	for rows.Next() {
		rec, err := scanAccessEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEvents scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAccessEvent(row rowScanner) (store.AccessEventRecord, error) {
	var (
		rec        store.AccessEventRecord
		outcome    string
		userID     sql.NullString
		credID     sql.NullString
		occurredMs int64
	)
	if err := row.Scan(
		&rec.ID, &outcome, &rec.Location, &rec.Reason,
		&userID, &credID, &rec.CardIDHash, &occurredMs,
	); err != nil {
		return store.AccessEventRecord{}, err
	}
	rec.Outcome = types.Outcome(outcome)
	rec.UserID = userID.String
	rec.CredentialID = credID.String
	rec.OccurredAt = fromMs(occurredMs)
	return rec, nil
}
