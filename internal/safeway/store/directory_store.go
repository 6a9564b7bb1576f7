package store

import (
	"context"
	"time"
)

type UserRecord struct {
	ID        string
	FullName  string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CredentialRecord is a registered card. WindowStart and WindowEnd hold
// "HH:MM" strings and are empty when unset; they only matter when
// HasTimeRestriction is true.
type CredentialRecord struct {
	ID                 string
	UserID             string
	CardID             string
	Active             bool
	HasTimeRestriction bool
	WindowStart        string
	WindowEnd          string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// SyncRecord joins an active credential with its active owner.
type SyncRecord struct {
	CardID             string
	UserName           string
	HasTimeRestriction bool
	WindowStart        string
	WindowEnd          string
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (UserRecord, bool, error)
	ListUsers(ctx context.Context, p Page) ([]UserRecord, error)
	CreateUser(ctx context.Context, rec UserRecord) error
	UpdateUser(ctx context.Context, rec UserRecord) error
}

type CredentialStore interface {
	// FindActiveByCardID returns the credential for cardID only when it is
	// active. Inactive and unknown cards both report found=false.
	FindActiveByCardID(ctx context.Context, cardID string) (CredentialRecord, bool, error)
	GetCredential(ctx context.Context, id string) (CredentialRecord, bool, error)
	ListCredentials(ctx context.Context, p Page) ([]CredentialRecord, error)
	CreateCredential(ctx context.Context, rec CredentialRecord) error
	UpdateCredential(ctx context.Context, rec CredentialRecord) error

	// ListSyncable pages through active credentials owned by active users,
	// ordered by card id, and returns the total number of such rows.
	ListSyncable(ctx context.Context, p Page) ([]SyncRecord, int, error)
}
