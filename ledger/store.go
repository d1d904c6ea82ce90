package ledger

import (
	"context"
	"errors"
	"time"

	"teradl-bot/models"
)

var (
	// ErrStoreUnavailable wraps any backing-store failure. Callers must fail
	// closed on it: deny the download, tell the user to retry later.
	ErrStoreUnavailable = errors.New("account store unavailable")

	// ErrNotFound is returned by Store.Find when no account exists yet.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidArgument covers malformed user ids and non-positive durations.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Stats is an aggregate snapshot across all accounts.
type Stats struct {
	TotalUsers     int64
	PremiumUsers   int64
	TotalDownloads int64
}

// Store abstracts persistence of accounts. Implementations must make
// Insert safe under concurrent first access for the same user id: a
// duplicate insert is a no-op, never an error and never a second record.
type Store interface {
	Find(ctx context.Context, userID int64) (*models.Account, error)
	Insert(ctx context.Context, a *models.Account) error

	// Update persists a mutated account. Updating a user id with no stored
	// record returns ErrNotFound rather than silently writing nothing.
	Update(ctx context.Context, a *models.Account) error

	// ExpirePremium flips is_premium off for every account whose expiry is at
	// or before now. Pure bookkeeping; lazy expiry in the ledger is the
	// source of truth regardless.
	ExpirePremium(ctx context.Context, now time.Time) (int64, error)

	Stats(ctx context.Context) (Stats, error)
}
