package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/ports"
)

// Throttle policy: 5 failures within a 300 s window lock the client key out
// for 300 s. Keys are client identities (IPs), not accounts, so an attacker
// cannot lock a victim out of their own account by hammering it.
const (
	maxLoginAttempts = 5
	attemptWindow    = 300 * time.Second
	lockoutDuration  = 300 * time.Second
)

// LoginThrottle enforces the per-client brute-force policy on top of an
// atomic counter store.
type LoginThrottle struct {
	store  ports.ThrottleStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewLoginThrottle(store ports.ThrottleStore, logger zerolog.Logger) *LoginThrottle {
	return &LoginThrottle{store: store, logger: logger, now: time.Now}
}

// CheckLocked reports whether the client key is currently locked out and the
// time remaining until the lockout expires.
func (t *LoginThrottle) CheckLocked(ctx context.Context, clientKey string) (time.Duration, bool, error) {
	until, err := t.store.Lockout(ctx, clientKey)
	if err != nil {
		return 0, false, err
	}
	if until.IsZero() {
		return 0, false, nil
	}
	remaining := until.Sub(t.now())
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// RecordFailure bumps the failure counter and installs a lockout once the
// threshold is reached, reporting whether it did. The increment is atomic
// per key in the store.
func (t *LoginThrottle) RecordFailure(ctx context.Context, clientKey string) (bool, error) {
	count, err := t.store.Increment(ctx, clientKey, attemptWindow)
	if err != nil {
		return false, err
	}
	if count < maxLoginAttempts {
		return false, nil
	}
	until := t.now().Add(lockoutDuration)
	if err := t.store.SetLockout(ctx, clientKey, until); err != nil {
		return false, err
	}
	t.logger.Warn().
		Str("client_key", clientKey).
		Int64("failures", count).
		Time("locked_until", until).
		Msg("client locked out after repeated login failures")
	return count == maxLoginAttempts, nil
}

// RecordSuccess clears the counter and any lockout for the key.
func (t *LoginThrottle) RecordSuccess(ctx context.Context, clientKey string) error {
	return t.store.Clear(ctx, clientKey)
}
