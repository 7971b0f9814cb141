package auth

import (
	"context"
	"math"
	"time"

	"github.com/getsentry/sentry-go"

	"petcare-serverless/internal/observability"
)

const (
	defaultMaxAttempts = 5
	defaultLockWindow  = 5 * time.Minute
)

// AttemptStore is the durable per-client state behind the throttle. The
// increment must be atomic per client: two concurrent failures may never
// both observe the pre-increment count.
type AttemptStore interface {
	GetAttempt(ctx context.Context, clientID string) (LoginAttempt, error)
	IncrementAttempt(ctx context.Context, clientID string, now time.Time) (int, error)
	LockAttempt(ctx context.Context, clientID string, until time.Time) error
	ResetAttempt(ctx context.Context, clientID string) error
	ClearAttempt(ctx context.Context, clientID string) error
}

// LoginThrottle tracks failed logins per client and escalates to a timed
// lockout at the attempt threshold. Lock expiry is detected lazily on the
// next status check; there is no background sweep. Store failures fail
// open: an outage degrades lockout strictness, never login availability.
type LoginThrottle struct {
	store       AttemptStore
	logger      *observability.Logger
	maxAttempts int
	lockWindow  time.Duration
	now         func() time.Time
}

func NewLoginThrottle(store AttemptStore, logger *observability.Logger, maxAttempts int, lockWindow time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if lockWindow <= 0 {
		lockWindow = defaultLockWindow
	}

	return &LoginThrottle{
		store:       store,
		logger:      logger,
		maxAttempts: maxAttempts,
		lockWindow:  lockWindow,
		now:         time.Now,
	}
}

func (t *LoginThrottle) MaxAttempts() int {
	return t.maxAttempts
}

// CheckStatus reports whether clientID is currently locked out. An expired
// lock is reset to a clear record here, as a side effect of the check.
func (t *LoginThrottle) CheckStatus(ctx context.Context, clientID string) LoginStatus {
	attempt, err := t.store.GetAttempt(ctx, clientID)
	if err != nil {
		t.failOpen("throttle_check_failed", clientID, err)
		return LoginStatus{}
	}

	if attempt.LockedUntil == nil {
		return LoginStatus{AttemptCount: attempt.AttemptCount}
	}

	now := t.now().UTC()
	if now.Before(*attempt.LockedUntil) {
		return LoginStatus{
			Locked:           true,
			RemainingSeconds: remainingSeconds(attempt.LockedUntil.Sub(now)),
			AttemptCount:     attempt.AttemptCount,
		}
	}

	if err := t.store.ResetAttempt(ctx, clientID); err != nil {
		t.failOpen("throttle_reset_failed", clientID, err)
	}

	return LoginStatus{}
}

// RecordFailure bumps the client's failure count, applying the lock when
// the count reaches the threshold. On a store error it reports a
// best-effort count of 1 so a storage outage never errors the login path.
func (t *LoginThrottle) RecordFailure(ctx context.Context, clientID string) LoginStatus {
	now := t.now().UTC()
	count, err := t.store.IncrementAttempt(ctx, clientID, now)
	if err != nil {
		t.failOpen("throttle_increment_failed", clientID, err)
		return LoginStatus{AttemptCount: 1}
	}

	if count < t.maxAttempts {
		return LoginStatus{AttemptCount: count}
	}

	until := now.Add(t.lockWindow)
	if err := t.store.LockAttempt(ctx, clientID, until); err != nil {
		t.failOpen("throttle_lock_failed", clientID, err)
		return LoginStatus{AttemptCount: count}
	}

	return LoginStatus{
		Locked:           true,
		RemainingSeconds: remainingSeconds(t.lockWindow),
		AttemptCount:     count,
	}
}

// RecordSuccess deletes the client's record entirely.
func (t *LoginThrottle) RecordSuccess(ctx context.Context, clientID string) {
	if err := t.store.ClearAttempt(ctx, clientID); err != nil {
		t.failOpen("throttle_clear_failed", clientID, err)
	}
}

func (t *LoginThrottle) RemainingAttempts(count int) int {
	remaining := t.maxAttempts - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *LoginThrottle) failOpen(event, clientID string, err error) {
	sentry.CaptureException(err)
	t.logger.Error(event, map[string]any{
		"client_id": clientID,
		"error":     err.Error(),
	})
}

func remainingSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
