package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/timewindow"
	"github.com/safeway/server/internal/safeway/types"
)

// EngineConfig holds the engine's collaborators that come from configuration.
type EngineConfig struct {
	// Location is the zone window bounds are interpreted in. nil means
	// time.Local.
	Location *time.Location

	// DefaultWindow is reported for unrestricted credentials. The zero
	// value is replaced with 00:00-23:59.
	DefaultWindow timewindow.Window

	// AuditWriteTimeout bounds the audit append. 0 means no bound beyond
	// the store's own.
	AuditWriteTimeout time.Duration

	// Now overrides the clock used by Validate. Tests only.
	Now func() time.Time
}

// Decision is the outcome of one evaluation together with the rows it was
// decided from. Credential and User are nil when the card was not found.
type Decision struct {
	Record     store.AccessEventRecord
	Credential *store.CredentialRecord
	User       *store.UserRecord
	Window     *timewindow.Window
}

func (d Decision) Granted() bool { return d.Record.Outcome == types.OutcomeGranted }

// AccessEngine decides whether a presented card opens a door and appends
// exactly one audit record per decision.
type AccessEngine struct {
	creds  store.CredentialStore
	users  store.UserStore
	events store.AccessEventStore
	cfg    EngineConfig
	logger *zap.Logger
}

func NewAccessEngine(
	creds store.CredentialStore,
	users store.UserStore,
	events store.AccessEventStore,
	cfg EngineConfig,
	logger *zap.Logger,
) *AccessEngine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DefaultWindow == (timewindow.Window{}) {
		cfg.DefaultWindow = timewindow.Window{Start: 0, End: timewindow.MinutesPerDay - 1}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessEngine{
		creds:  creds,
		users:  users,
		events: events,
		cfg:    cfg,
		logger: logger.Named("access"),
	}
}

// Evaluate runs the decision for cardID at location as of now. Card not
// found and policy denials are outcomes, not errors. An error means no
// decision was made and no audit record exists: ErrConfiguration for bad
// stored data, ErrStorage when a lookup or the audit append failed.
func (e *AccessEngine) Evaluate(ctx context.Context, cardID, location string, now time.Time) (Decision, error) {
	d, err := e.decide(ctx, cardID, now)
	if err != nil {
		e.logger.Error("access evaluation failed",
			zap.String("location", location),
			zap.Error(err),
		)
		return Decision{}, err
	}

	hash := sha256.Sum256([]byte(cardID))
	d.Record.ID = uuid.NewString()
	d.Record.Location = location
	d.Record.CardIDHash = hash[:]
	d.Record.OccurredAt = now.UTC()

	if err := e.appendDecision(ctx, d.Record); err != nil {
		e.logger.Error("audit append failed",
			zap.String("decision_id", d.Record.ID),
			zap.String("outcome", string(d.Record.Outcome)),
			zap.Error(err),
		)
		return Decision{}, err
	}

	e.logger.Info("access decision",
		zap.String("decision_id", d.Record.ID),
		zap.String("outcome", string(d.Record.Outcome)),
		zap.String("location", location),
		zap.String("user_id", d.Record.UserID),
		zap.String("reason", d.Record.Reason),
	)
	return d, nil
}

// decide resolves the outcome without side effects.
func (e *AccessEngine) decide(ctx context.Context, cardID string, now time.Time) (Decision, error) {
	cred, ok, err := e.creds.FindActiveByCardID(ctx, cardID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: find credential: %w", ErrStorage, err)
	}
	if !ok {
		return Decision{Record: store.AccessEventRecord{
			Outcome: types.OutcomeCardNotFound,
			Reason:  fmt.Sprintf("credential not found for card %s", cardID),
		}}, nil
	}

	user, ok, err := e.users.GetUser(ctx, cred.UserID)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: get user: %w", ErrStorage, err)
	}
	if !ok {
		return Decision{}, fmt.Errorf("%w: credential %s references missing user %s",
			ErrConfiguration, cred.ID, cred.UserID)
	}

	d := Decision{
		Credential: &cred,
		User:       &user,
		Record: store.AccessEventRecord{
			UserID:       user.ID,
			CredentialID: cred.ID,
		},
	}

	if !user.Active {
		d.Record.Outcome = types.OutcomeDenied
		d.Record.Reason = "user inactive"
		return d, nil
	}

	if cred.HasTimeRestriction {
		w, err := timewindow.Parse(cred.WindowStart, cred.WindowEnd)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: credential %s: %w", ErrConfiguration, cred.ID, err)
		}
		d.Window = &w

		if !w.Contains(timewindow.MinuteOfDay(now, e.cfg.Location)) {
			d.Record.Outcome = types.OutcomeDenied
			d.Record.Reason = fmt.Sprintf("outside permitted window %s", w)
			return d, nil
		}
	}

	d.Record.Outcome = types.OutcomeGranted
	d.Record.Reason = fmt.Sprintf("access granted for %s", user.FullName)
	return d, nil
}

// appendDecision writes the audit record on a context detached from caller
// cancellation and bounded by AuditWriteTimeout.
func (e *AccessEngine) appendDecision(ctx context.Context, rec store.AccessEventRecord) error {
	ctx = context.WithoutCancel(ctx)
	if e.cfg.AuditWriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.AuditWriteTimeout)
		defer cancel()
	}

	if err := e.events.RecordEvent(ctx, rec); err != nil {
		return fmt.Errorf("%w: record access event: %w", ErrStorage, err)
	}
	return nil
}

// Validate is the request-facing entry point: it checks input, evaluates at
// the engine clock and shapes the response.
func (e *AccessEngine) Validate(ctx context.Context, req types.ValidateAccessRequest) (types.ValidateAccessResponse, error) {
	cardID := strings.TrimSpace(req.CardID)
	location := strings.TrimSpace(req.Location)

	if cardID == "" {
		return types.ValidateAccessResponse{}, ErrInvalidCardID
	}
	if location == "" {
		return types.ValidateAccessResponse{}, ErrInvalidLocation
	}

	now := e.cfg.Now()
	d, err := e.Evaluate(ctx, cardID, location, now)
	if err != nil {
		return types.ValidateAccessResponse{}, err
	}
	return e.response(d, now), nil
}

func (e *AccessEngine) response(d Decision, now time.Time) types.ValidateAccessResponse {
	resp := types.ValidateAccessResponse{
		AccessGranted: d.Granted(),
		Outcome:       d.Record.Outcome,
		Message:       d.Record.Reason,
		DecisionID:    d.Record.ID,
		ServerTime:    now.In(e.cfg.Location).Format(time.RFC3339),
	}
	if d.Credential == nil {
		return resp
	}

	resp.UserID = d.User.ID
	resp.UserName = d.User.FullName
	resp.UserEmail = d.User.Email
	resp.HasTimeRestriction = d.Credential.HasTimeRestriction

	switch {
	case d.Window != nil:
		resp.TimeWindowStart = timewindow.FormatClock(d.Window.Start)
		resp.TimeWindowEnd = timewindow.FormatClock(d.Window.End)
	case d.Credential.HasTimeRestriction:
		// Denied before the window was evaluated.
		resp.TimeWindowStart = d.Credential.WindowStart
		resp.TimeWindowEnd = d.Credential.WindowEnd
	default:
		resp.TimeWindowStart = timewindow.FormatClock(e.cfg.DefaultWindow.Start)
		resp.TimeWindowEnd = timewindow.FormatClock(e.cfg.DefaultWindow.End)
	}
	return resp
}
