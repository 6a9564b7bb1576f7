package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/types"
)

// LogQuery selects a page of a log listing. Zero times are open ends.
type LogQuery struct {
	Skip  int
	Limit int
	From  time.Time
	To    time.Time
}

func (q LogQuery) page() store.Page      { return store.Page{Offset: q.Skip, Limit: q.Limit} }
func (q LogQuery) span() store.TimeRange { return store.TimeRange{From: q.From, To: q.To} }

type ErrorLogQuery struct {
	LogQuery
	Severity  types.Severity
	Component string
}

// LogService reads the access audit trail and owns the reader error and
// HTTP request logs.
type LogService struct {
	events store.AccessEventStore
	errors store.ErrorLogStore
	http   store.HTTPLogStore
	logger *zap.Logger
	now    func() time.Time
}

func NewLogService(events store.AccessEventStore, errs store.ErrorLogStore, http store.HTTPLogStore, logger *zap.Logger) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogService{
		events: events,
		errors: errs,
		http:   http,
		logger: logger.Named("logs"),
		now:    time.Now,
	}
}

// ── Access log ───────────────────────────────────────────────────────────────

func (s *LogService) ListAccessLogs(ctx context.Context, q LogQuery) ([]types.AccessLog, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	recs, err := s.events.ListEvents(ctx, q.span(), q.page())
	if err != nil {
		return nil, fmt.Errorf("%w: list access events: %w", ErrStorage, err)
	}
	out := make([]types.AccessLog, 0, len(recs))
	for _, r := range recs {
		out = append(out, accessLogView(r))
	}
	return out, nil
}

func (s *LogService) GetAccessLog(ctx context.Context, id string) (types.AccessLog, error) {
	rec, ok, err := s.events.GetEvent(ctx, strings.TrimSpace(id))
	if err != nil {
		return types.AccessLog{}, fmt.Errorf("%w: get access event: %w", ErrStorage, err)
	}
	if !ok {
		return types.AccessLog{}, fmt.Errorf("%w: access log %s", ErrNotFound, id)
	}
	return accessLogView(rec), nil
}

// ── Reader error reports ─────────────────────────────────────────────────────

func (s *LogService) ReportError(ctx context.Context, in types.ErrorReport) (types.ErrorLog, error) {
	rec := store.ErrorLogRecord{
		ID:          uuid.NewString(),
		ErrorType:   strings.TrimSpace(in.ErrorType),
		Component:   strings.TrimSpace(in.Component),
		Description: strings.TrimSpace(in.Description),
		Severity:    types.Severity(strings.ToLower(strings.TrimSpace(string(in.Severity)))),
		ReportedAt:  s.now().UTC(),
	}
	if rec.Severity == "" {
		rec.Severity = types.SeverityMedium
	}

	switch {
	case rec.ErrorType == "":
		return types.ErrorLog{}, fmt.Errorf("%w: error_type is required", ErrInvalidInput)
	case rec.Component == "":
		return types.ErrorLog{}, fmt.Errorf("%w: component is required", ErrInvalidInput)
	case !rec.Severity.Valid():
		return types.ErrorLog{}, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, rec.Severity)
	}

	if err := s.errors.RecordError(ctx, rec); err != nil {
		return types.ErrorLog{}, fmt.Errorf("%w: record error report: %w", ErrStorage, err)
	}

	s.logger.Warn("reader error reported",
		zap.String("error_type", rec.ErrorType),
		zap.String("component", rec.Component),
		zap.String("severity", string(rec.Severity)),
	)
	return errorLogView(rec), nil
}

func (s *LogService) ListErrors(ctx context.Context, q ErrorLogQuery) ([]types.ErrorLog, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.Severity != "" && !q.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, q.Severity)
	}

	recs, err := s.errors.ListErrors(ctx, store.ErrorLogFilter{
		Severity:  q.Severity,
		Component: strings.TrimSpace(q.Component),
		Range:     q.span(),
	}, q.page())
	if err != nil {
		return nil, fmt.Errorf("%w: list error logs: %w", ErrStorage, err)
	}
	out := make([]types.ErrorLog, 0, len(recs))
	for _, r := range recs {
		out = append(out, errorLogView(r))
	}
	return out, nil
}

func (s *LogService) GetError(ctx context.Context, id string) (types.ErrorLog, error) {
	rec, ok, err := s.errors.GetError(ctx, strings.TrimSpace(id))
	if err != nil {
		return types.ErrorLog{}, fmt.Errorf("%w: get error log: %w", ErrStorage, err)
	}
	if !ok {
		return types.ErrorLog{}, fmt.Errorf("%w: error log %s", ErrNotFound, id)
	}
	return errorLogView(rec), nil
}

// ── HTTP request log ─────────────────────────────────────────────────────────

// RecordRequest appends one request row. Failures are logged and dropped;
// the request log never affects a response.
func (s *LogService) RecordRequest(ctx context.Context, method, endpoint string, status int, payload string) {
	rec := store.HTTPLogRecord{
		ID:         uuid.NewString(),
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: status,
		Payload:    payload,
		ReceivedAt: s.now().UTC(),
	}
	if err := s.http.RecordRequest(ctx, rec); err != nil {
		s.logger.Warn("http log write failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
}

func (s *LogService) ListHTTPLogs(ctx context.Context, limit int) ([]types.HTTPLog, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0", ErrInvalidInput)
	}
	recs, err := s.http.ListRequests(ctx, store.Page{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: list http logs: %w", ErrStorage, err)
	}
	out := make([]types.HTTPLog, 0, len(recs))
	for _, r := range recs {
		out = append(out, types.HTTPLog{
			ID:         r.ID,
			Method:     r.Method,
			Endpoint:   r.Endpoint,
			StatusCode: r.StatusCode,
			Payload:    r.Payload,
			Timestamp:  r.ReceivedAt,
		})
	}
	return out, nil
}

func (q LogQuery) validate() error {
	if q.Skip < 0 || q.Limit < 0 {
		return fmt.Errorf("%w: skip and limit must be >= 0", ErrInvalidInput)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	return nil
}

func accessLogView(r store.AccessEventRecord) types.AccessLog {
	return types.AccessLog{
		ID:               r.ID,
		EventType:        r.Outcome,
		Location:         r.Location,
		Description:      r.Reason,
		UserID:           r.UserID,
		RFIDCredentialID: r.CredentialID,
		Timestamp:        r.OccurredAt,
	}
}

func errorLogView(r store.ErrorLogRecord) types.ErrorLog {
	return types.ErrorLog{
		ID:          r.ID,
		ErrorType:   r.ErrorType,
		Component:   r.Component,
		Description: r.Description,
		Severity:    r.Severity,
		Timestamp:   r.ReportedAt,
	}
}
