package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/safeway/server/internal/safeway/service"
)

const defaultListLimit = 100

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", service.ErrInvalidInput, key)
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps or bare dates (YYYY-MM-DD, UTC).
func queryTime(r *http.Request, key string) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", service.ErrInvalidInput, key)
}

// logQuery reads skip, limit, start_date and end_date. paged=false drops
// skip/limit and returns everything.
func logQuery(r *http.Request, paged bool) (service.LogQuery, error) {
	var q service.LogQuery
	var err error

	if paged {
		if q.Skip, err = queryInt(r, "skip", 0); err != nil {
			return q, err
		}
		if q.Limit, err = queryInt(r, "limit", defaultListLimit); err != nil {
			return q, err
		}
	}
	if q.From, err = queryTime(r, "start_date"); err != nil {
		return q, err
	}
	if q.To, err = queryTime(r, "end_date"); err != nil {
		return q, err
	}
	return q, nil
}

func pageParams(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", defaultListLimit); err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}
