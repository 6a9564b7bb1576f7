package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/timewindow"
	"github.com/safeway/server/internal/safeway/types"
)

const (
	DefaultSyncPageSize = 40
	MaxSyncPageSize     = 1000
)

// DirectoryConfig holds the directory's tunables.
type DirectoryConfig struct {
	// SyncPageSize is used when a sync request names no page size.
	SyncPageSize int
	// DefaultWindow is sent to readers for unrestricted cards. The zero
	// value means the whole day.
	DefaultWindow timewindow.Window
}

// DirectoryService manages users and their cards. It holds no access policy;
// the engine reads what it writes.
type DirectoryService struct {
	users  store.UserStore
	creds  store.CredentialStore
	cfg    DirectoryConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewDirectoryService(users store.UserStore, creds store.CredentialStore, cfg DirectoryConfig, logger *zap.Logger) *DirectoryService {
	if cfg.SyncPageSize <= 0 || cfg.SyncPageSize > MaxSyncPageSize {
		cfg.SyncPageSize = DefaultSyncPageSize
	}
	if cfg.DefaultWindow == (timewindow.Window{}) {
		cfg.DefaultWindow = timewindow.Window{Start: 0, End: timewindow.MinutesPerDay - 1}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		users:  users,
		creds:  creds,
		cfg:    cfg,
		logger: logger.Named("directory"),
		now:    time.Now,
	}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *DirectoryService) CreateUser(ctx context.Context, in types.UserCreate) (types.User, error) {
	name := strings.TrimSpace(in.FullName)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return types.User{}, err
	}
	if name == "" {
		return types.User{}, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
	}

	rec := store.UserRecord{
		ID:        uuid.NewString(),
		FullName:  name,
		Email:     email,
		Active:    in.IsActive == nil || *in.IsActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, rec); err != nil {
		return types.User{}, storeErr("create user", err)
	}

	s.logger.Info("user created", zap.String("user_id", rec.ID))
	return userView(rec), nil
}

func (s *DirectoryService) GetUser(ctx context.Context, id string) (types.User, error) {
	rec, err := s.loadUser(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	return userView(rec), nil
}

func (s *DirectoryService) ListUsers(ctx context.Context, skip, limit int) ([]types.User, error) {
	recs, err := s.users.ListUsers(ctx, store.Page{Offset: skip, Limit: limit})
	if err != nil {
		return nil, storeErr("list users", err)
	}
	out := make([]types.User, 0, len(recs))
	for _, r := range recs {
		out = append(out, userView(r))
	}
	return out, nil
}

func (s *DirectoryService) UpdateUser(ctx context.Context, id string, in types.UserUpdate) (types.User, error) {
	rec, err := s.loadUser(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return types.User{}, fmt.Errorf("%w: full_name is required", ErrInvalidInput)
		}
		rec.FullName = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return types.User{}, err
		}
		rec.Email = email
	}
	if in.IsActive != nil {
		rec.Active = *in.IsActive
	}

	return s.saveUser(ctx, rec)
}

// DeactivateUser is a soft delete. The user's cards stay registered and
// are denied at evaluation time.
func (s *DirectoryService) DeactivateUser(ctx context.Context, id string) (types.User, error) {
	rec, err := s.loadUser(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	rec.Active = false
	return s.saveUser(ctx, rec)
}

func (s *DirectoryService) saveUser(ctx context.Context, rec store.UserRecord) (types.User, error) {
	now := s.now().UTC()
	rec.UpdatedAt = &now
	if err := s.users.UpdateUser(ctx, rec); err != nil {
		return types.User{}, storeErr("update user", err)
	}
	s.logger.Info("user updated", zap.String("user_id", rec.ID), zap.Bool("active", rec.Active))
	return userView(rec), nil
}

func (s *DirectoryService) loadUser(ctx context.Context, id string) (store.UserRecord, error) {
	rec, ok, err := s.users.GetUser(ctx, strings.TrimSpace(id))
	if err != nil {
		return store.UserRecord{}, storeErr("get user", err)
	}
	if !ok {
		return store.UserRecord{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return rec, nil
}

// ── Credentials ──────────────────────────────────────────────────────────────

func (s *DirectoryService) CreateCredential(ctx context.Context, in types.CredentialCreate) (types.Credential, error) {
	if _, err := s.loadUser(ctx, in.UserID); err != nil {
		return types.Credential{}, err
	}

	rec := store.CredentialRecord{
		ID:                 uuid.NewString(),
		UserID:             strings.TrimSpace(in.UserID),
		CardID:             strings.TrimSpace(in.CardID),
		Active:             in.IsActive == nil || *in.IsActive,
		HasTimeRestriction: in.HasTimeRestriction,
		WindowStart:        strings.TrimSpace(in.TimeWindowStart),
		WindowEnd:          strings.TrimSpace(in.TimeWindowEnd),
		CreatedAt:          s.now().UTC(),
	}
	if err := validateCredential(&rec); err != nil {
		return types.Credential{}, err
	}

	if err := s.creds.CreateCredential(ctx, rec); err != nil {
		return types.Credential{}, storeErr("create credential", err)
	}

	s.logger.Info("credential created",
		zap.String("credential_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.Bool("restricted", rec.HasTimeRestriction),
	)
	return credentialView(rec), nil
}

func (s *DirectoryService) GetCredential(ctx context.Context, id string) (types.Credential, error) {
	rec, err := s.loadCredential(ctx, id)
	if err != nil {
		return types.Credential{}, err
	}
	return credentialView(rec), nil
}

func (s *DirectoryService) ListCredentials(ctx context.Context, skip, limit int) ([]types.Credential, error) {
	recs, err := s.creds.ListCredentials(ctx, store.Page{Offset: skip, Limit: limit})
	if err != nil {
		return nil, storeErr("list credentials", err)
	}
	out := make([]types.Credential, 0, len(recs))
	for _, r := range recs {
		out = append(out, credentialView(r))
	}
	return out, nil
}

func (s *DirectoryService) UpdateCredential(ctx context.Context, id string, in types.CredentialUpdate) (types.Credential, error) {
	rec, err := s.loadCredential(ctx, id)
	if err != nil {
		return types.Credential{}, err
	}

	if in.CardID != nil {
		rec.CardID = strings.TrimSpace(*in.CardID)
	}
	if in.IsActive != nil {
		rec.Active = *in.IsActive
	}
	if in.HasTimeRestriction != nil {
		rec.HasTimeRestriction = *in.HasTimeRestriction
	}
	if in.TimeWindowStart != nil {
		rec.WindowStart = strings.TrimSpace(*in.TimeWindowStart)
	}
	if in.TimeWindowEnd != nil {
		rec.WindowEnd = strings.TrimSpace(*in.TimeWindowEnd)
	}
	if err := validateCredential(&rec); err != nil {
		return types.Credential{}, err
	}

	now := s.now().UTC()
	rec.UpdatedAt = &now
	if err := s.creds.UpdateCredential(ctx, rec); err != nil {
		return types.Credential{}, storeErr("update credential", err)
	}

	s.logger.Info("credential updated",
		zap.String("credential_id", rec.ID),
		zap.Bool("active", rec.Active),
	)
	return credentialView(rec), nil
}

func (s *DirectoryService) loadCredential(ctx context.Context, id string) (store.CredentialRecord, error) {
	rec, ok, err := s.creds.GetCredential(ctx, strings.TrimSpace(id))
	if err != nil {
		return store.CredentialRecord{}, storeErr("get credential", err)
	}
	if !ok {
		return store.CredentialRecord{}, fmt.Errorf("%w: credential %s", ErrNotFound, id)
	}
	return rec, nil
}

// SyncPage returns one page of the feed embedded readers mirror locally.
// page is 1-based; pageSize <= 0 uses the configured default.
func (s *DirectoryService) SyncPage(ctx context.Context, page, pageSize int) (types.SyncPage, error) {
	if page < 1 {
		return types.SyncPage{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}
	if pageSize <= 0 {
		pageSize = s.cfg.SyncPageSize
	}
	if pageSize > MaxSyncPageSize {
		return types.SyncPage{}, fmt.Errorf("%w: page_size must be <= %d", ErrInvalidInput, MaxSyncPageSize)
	}

	recs, total, err := s.creds.ListSyncable(ctx, store.Page{Offset: (page - 1) * pageSize, Limit: pageSize})
	if err != nil {
		return types.SyncPage{}, storeErr("list syncable", err)
	}

	out := types.SyncPage{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
		Data:       make([]types.SyncEntry, 0, len(recs)),
	}
	for _, r := range recs {
		start, end := r.WindowStart, r.WindowEnd
		if !r.HasTimeRestriction {
			start = timewindow.FormatClock(s.cfg.DefaultWindow.Start)
			end = timewindow.FormatClock(s.cfg.DefaultWindow.End)
		}
		out.Data = append(out.Data, types.SyncEntry{
			CardID:             r.CardID,
			UserName:           r.UserName,
			HasTimeRestriction: r.HasTimeRestriction,
			TimeWindowStart:    start,
			TimeWindowEnd:      end,
		})
	}
	return out, nil
}

// validateCredential enforces the registration rules. Unrestricted cards
// have their bounds cleared.
func validateCredential(rec *store.CredentialRecord) error {
	if rec.CardID == "" {
		return ErrInvalidCardID
	}
	if !rec.HasTimeRestriction {
		rec.WindowStart, rec.WindowEnd = "", ""
		return nil
	}
	if _, err := timewindow.Parse(rec.WindowStart, rec.WindowEnd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: email %q is not a valid address", ErrInvalidInput, raw)
	}
	return raw, nil
}

// storeErr maps store sentinels onto service categories.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s: %w", ErrConflict, op, err)
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func userView(r store.UserRecord) types.User {
	return types.User{
		ID:        r.ID,
		FullName:  r.FullName,
		Email:     r.Email,
		IsActive:  r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func credentialView(r store.CredentialRecord) types.Credential {
	return types.Credential{
		ID:                 r.ID,
		UserID:             r.UserID,
		CardID:             r.CardID,
		IsActive:           r.Active,
		HasTimeRestriction: r.HasTimeRestriction,
		TimeWindowStart:    r.WindowStart,
		TimeWindowEnd:      r.WindowEnd,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
