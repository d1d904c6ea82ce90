package ledger

import (
	"context"
	"errors"
	"time"

	"teradl-bot/models"
)

// DenyReason classifies a denied decision.
type DenyReason string

const ReasonQuotaExceeded DenyReason = "quota_exceeded"

// Decision is the outcome of a CanDownload check. When denied, Limit and
// Current carry the numbers shown to the user.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Limit   int
	Current int
}

// Ledger owns per-user quota state and the premium lifecycle. It keeps no
// in-process state of its own; every call reads and writes through the store.
// It never retries: store failures surface to the caller, which fails closed.
type Ledger struct {
	store      Store
	clock      Clock
	dailyLimit int
}

func New(store Store, clock Clock, dailyLimit int) *Ledger {
	return &Ledger{store: store, clock: clock, dailyLimit: dailyLimit}
}

// GetOrCreate returns the account for userID, creating a zero-state record on
// first contact. Creation is idempotent: a concurrent first access converges
// to one stored record because Insert is a no-op on duplicates.
func (l *Ledger) GetOrCreate(ctx context.Context, userID int64) (*models.Account, error) {
	if userID <= 0 {
		return nil, ErrInvalidArgument
	}

	a, err := l.store.Find(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	fresh := &models.Account{
		UserID:     userID,
		JoinedDate: l.clock.Now(),
	}
	if err := l.store.Insert(ctx, fresh); err != nil {
		return nil, err
	}
	// Re-read so a lost insert race still returns the winning record.
	return l.store.Find(ctx, userID)
}

// IsPremiumActive reports whether the account's premium window covers now.
// Pure function, no I/O; truth comes from premium_expiry, not the flag alone.
func IsPremiumActive(a *models.Account, now time.Time) bool {
	return a.IsPremium && a.PremiumExpiry != nil && now.Before(*a.PremiumExpiry)
}

// rolloverIfNewDay zeroes the daily counter when the calendar day of the last
// download differs from today, persisting the reset. Must run before any
// limit comparison so yesterday's counter never blocks today's first
// download. Idempotent within the same day.
func (l *Ledger) rolloverIfNewDay(ctx context.Context, a *models.Account, now time.Time) (*models.Account, error) {
	if a.LastDownloadDate != nil && SameDay(a.LastDownloadDate.In(now.Location()), now) {
		return a, nil
	}
	if a.DailyDownloads == 0 {
		return a, nil
	}
	a.DailyDownloads = 0
	if err := l.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CanDownload decides whether the user may download right now. The check is
// advisory: time passes between it and the slow external resolution, so
// callers sequence RecordDownload strictly after a successful resolve and
// accept the bounded over-admission two racing checks can produce.
func (l *Ledger) CanDownload(ctx context.Context, userID int64) (Decision, error) {
	a, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		return Decision{}, err
	}

	now := l.clock.Now()
	a, err = l.rolloverIfNewDay(ctx, a, now)
	if err != nil {
		return Decision{}, err
	}

	if IsPremiumActive(a, now) {
		return Decision{Allowed: true}, nil
	}
	if a.DailyDownloads >= l.dailyLimit {
		return Decision{
			Reason:  ReasonQuotaExceeded,
			Limit:   l.dailyLimit,
			Current: a.DailyDownloads,
		}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordDownload charges one download: +1 daily, +1 lifetime, stamps the
// time. Call it only after CanDownload allowed and the asset was actually
// obtained; there is no refund path for failures.
func (l *Ledger) RecordDownload(ctx context.Context, userID int64) (*models.Account, error) {
	a, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	a, err = l.rolloverIfNewDay(ctx, a, now)
	if err != nil {
		return nil, err
	}

	a.DailyDownloads++
	a.TotalDownloads++
	a.LastDownloadDate = &now
	if err := l.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GrantPremium adds days of premium. An active window is extended from its
// current expiry (repeated grants stack); an expired or absent one restarts
// from now.
func (l *Ledger) GrantPremium(ctx context.Context, userID int64, days int) (*models.Account, error) {
	if days <= 0 {
		return nil, ErrInvalidArgument
	}
	a, err := l.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	var expiry time.Time
	if IsPremiumActive(a, now) {
		expiry = a.PremiumExpiry.AddDate(0, 0, days)
	} else {
		expiry = now.AddDate(0, 0, days)
	}
	a.IsPremium = true
	a.PremiumExpiry = &expiry
	if err := l.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SweepExpired flips stale premium flags in bulk. Optional bookkeeping for
// the cron job; IsPremiumActive already recomputes truth on every check.
func (l *Ledger) SweepExpired(ctx context.Context) (int64, error) {
	return l.store.ExpirePremium(ctx, l.clock.Now())
}

// DailyLimit exposes the configured free-tier limit for user-facing messages.
func (l *Ledger) DailyLimit() int {
	return l.dailyLimit
}

// Stats proxies the store's aggregate snapshot.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	return l.store.Stats(ctx)
}
