package store

import (
	"context"
	"time"

	"github.com/safeway/server/internal/safeway/types"
)

// AccessEventRecord captures a single access decision for the audit log.
// UserID and CredentialID are empty when the card was not found.
type AccessEventRecord struct {
	ID           string
	Outcome      types.Outcome
	Location     string
	Reason       string
	UserID       string
	CredentialID string
	CardIDHash   []byte // SHA-256 of the presented card id
	OccurredAt   time.Time
}

// AccessEventStore persists access decisions as an append-only audit log.
// Events are never updated or deleted.
type AccessEventStore interface {
	RecordEvent(ctx context.Context, rec AccessEventRecord) error
	GetEvent(ctx context.Context, id string) (AccessEventRecord, bool, error)

	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, r TimeRange, p Page) ([]AccessEventRecord, error)
}
