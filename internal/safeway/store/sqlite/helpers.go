package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/safeway/server/internal/safeway/store"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translateErr maps sqlite constraint failures onto store sentinels so
// callers never need to know about the driver.
func translateErr(err error) error {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return errors.Join(store.ErrDuplicate, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errors.Join(store.ErrNotFound, err)
	}
	return err
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func optionalMs(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().UnixMilli()
}

func optionalTime(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMs(ms.Int64)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// limitOffset converts a store.Page into sqlite LIMIT/OFFSET arguments.
// LIMIT -1 means no limit.
func limitOffset(p store.Page) (int, int) {
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// rangeClause appends occurred-at style bounds for column to where/args.
func rangeClause(column string, r store.TimeRange, where []string, args []any) ([]string, []any) {
	if !r.From.IsZero() {
		where = append(where, column+" >= ?")
		args = append(args, r.From.UTC().UnixMilli())
	}
	if !r.To.IsZero() {
		where = append(where, column+" <= ?")
		args = append(args, r.To.UTC().UnixMilli())
	}
	return where, args
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(where, " AND ")
}
