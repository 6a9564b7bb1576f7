package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/types"
)

type ErrorLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewErrorLogStore(db *sql.DB, writer *dbpkg.Worker) *ErrorLogStore {
	return &ErrorLogStore{db: db, writer: writer}
}

func (s *ErrorLogStore) RecordError(ctx context.Context, rec store.ErrorLogRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO error_logs(id, error_type, component, description, severity, reported_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.ErrorType, rec.Component, rec.Description, string(rec.Severity), toMs(rec.ReportedAt),
		); err != nil {
			return fmt.Errorf("RecordError insert: %w", translateErr(err))
		}
		return nil
	})
}

const errorLogColumns = `id, error_type, component, description, severity, reported_at_ms`

func (s *ErrorLogStore) GetError(ctx context.Context, id string) (store.ErrorLogRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+errorLogColumns+` FROM error_logs WHERE id = ?;`, id)
	rec, err := scanErrorLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrorLogRecord{}, false, nil
	}
	if err != nil {
		return store.ErrorLogRecord{}, false, fmt.Errorf("GetError: %w", err)
	}
	return rec, true, nil
}

func (s *ErrorLogStore) ListErrors(ctx context.Context, f store.ErrorLogFilter, p store.Page) ([]store.ErrorLogRecord, error) {
	var where []string
	var args []any
	if f.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.Component != "" {
		where = append(where, "component = ?")
		args = append(args, f.Component)
	}
	where, args = rangeClause("reported_at_ms", f.Range, where, args)

	limit, offset := limitOffset(p)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
SELECT `+errorLogColumns+`
FROM error_logs
`+whereSQL(where)+`
ORDER BY reported_at_ms DESC
LIMIT ? OFFSET ?;`, args...)
	if err != nil {
		return nil, fmt.Errorf("ListErrors: %w", err)
	}
	defer rows.Close()

	out := make([]store.ErrorLogRecord, 0)
	for rows.Next() {
		rec, err := scanErrorLog(rows)
		if err != nil {
			return nil, fmt.Errorf("ListErrors scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanErrorLog(row rowScanner) (store.ErrorLogRecord, error) {
	var rec store.ErrorLogRecord
	var severity string
	var reportedMs int64
	if err := row.Scan(&rec.ID, &rec.ErrorType, &rec.Component, &rec.Description, &severity, &reportedMs); err != nil {
		return store.ErrorLogRecord{}, err
	}
	rec.Severity = types.Severity(severity)
	rec.ReportedAt = fromMs(reportedMs)
	return rec, nil
}

// HTTPLogStore is the request log written by the HTTP middleware.
type HTTPLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewHTTPLogStore(db *sql.DB, writer *dbpkg.Worker) *HTTPLogStore {
	return &HTTPLogStore{db: db, writer: writer}
}

func (s *HTTPLogStore) RecordRequest(ctx context.Context, rec store.HTTPLogRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO http_logs(id, method, endpoint, status_code, payload, received_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.Method, rec.Endpoint, rec.StatusCode, nullString(rec.Payload), toMs(rec.ReceivedAt),
		); err != nil {
			return fmt.Errorf("RecordRequest insert: %w", err)
		}
		return nil
	})
}

func (s *HTTPLogStore) ListRequests(ctx context.Context, p store.Page) ([]store.HTTPLogRecord, error) {
	limit, offset := limitOffset(p)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, method, endpoint, status_code, COALESCE(payload, ''), received_at_ms
FROM http_logs
ORDER BY received_at_ms DESC
LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListRequests: %w", err)
	}
	defer rows.Close()

	out := make([]store.HTTPLogRecord, 0)
	for rows.Next() {
		var rec store.HTTPLogRecord
		var receivedMs int64
		if err := rows.Scan(&rec.ID, &rec.Method, &rec.Endpoint, &rec.StatusCode, &rec.Payload, &receivedMs); err != nil {
			return nil, fmt.Errorf("ListRequests scan: %w", err)
		}
		rec.ReceivedAt = fromMs(receivedMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PruneOlderThan deletes request rows received before cutoff and returns the
// number of rows removed. Uses idx_http_logs_time for the range scan.
func (s *HTTPLogStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM http_logs WHERE received_at_ms < ?;`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
