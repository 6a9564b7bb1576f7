package store

import (
	"context"
	"time"

	"github.com/safeway/server/internal/safeway/types"
)

type ErrorLogRecord struct {
	ID          string
	ErrorType   string
	Component   string
	Description string
	Severity    types.Severity
	ReportedAt  time.Time
}

type ErrorLogFilter struct {
	Severity  types.Severity // empty matches all
	Component string         // empty matches all
	Range     TimeRange
}

type ErrorLogStore interface {
	RecordError(ctx context.Context, rec ErrorLogRecord) error
	GetError(ctx context.Context, id string) (ErrorLogRecord, bool, error)
	ListErrors(ctx context.Context, f ErrorLogFilter, p Page) ([]ErrorLogRecord, error)
}

type HTTPLogRecord struct {
	ID         string
	Method     string
	Endpoint   string
	StatusCode int
	Payload    string
	ReceivedAt time.Time
}

type HTTPLogStore interface {
	RecordRequest(ctx context.Context, rec HTTPLogRecord) error
	ListRequests(ctx context.Context, p Page) ([]HTTPLogRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
