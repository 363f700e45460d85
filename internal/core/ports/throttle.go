package ports

import (
	"context"
	"time"
)

// LoginThrottle tracks failed login attempts per client key (IP-derived).
// It is best-effort abuse mitigation against single-source brute force, not
// a security boundary against distributed attacks.
type LoginThrottle interface {
	// CheckLocked reports whether the client key is locked out and, if so,
	// how long until the lockout expires.
	CheckLocked(ctx context.Context, clientKey string) (time.Duration, bool, error)
	// RecordFailure reports whether this failure crossed the threshold and
	// installed a lockout.
	RecordFailure(ctx context.Context, clientKey string) (bool, error)
	// RecordSuccess clears the failure counter and any lockout for the key.
	RecordSuccess(ctx context.Context, clientKey string) error
}

// ThrottleStore is the expiring counter store behind LoginThrottle. The
// increment must be an atomic read-modify-write per key.
type ThrottleStore interface {
	// Increment bumps the failure counter, starting the expiry window on
	// first increment, and returns the new count.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Lockout returns the lockout deadline for the key, or a zero time when
	// none is set.
	Lockout(ctx context.Context, key string) (time.Time, error)
	SetLockout(ctx context.Context, key string, until time.Time) error
	// Clear removes both the counter and any lockout for the key.
	Clear(ctx context.Context, key string) error
}
