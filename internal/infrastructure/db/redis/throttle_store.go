package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix = "login_attempts:"
	lockoutKeyPrefix = "login_lockout:"
)

// ThrottleStore keeps login failure counters and lockouts in Redis.
// Key format: login_attempts:<client_key> and login_lockout:<client_key>.
// INCR makes the counter update an atomic read-modify-write per key.
type ThrottleStore struct {
	client *redis.Client
}

func NewThrottleStore(client *redis.Client) *ThrottleStore {
	return &ThrottleStore{client: client}
}

// Increment bumps the failure counter, starting the expiry window on the
// first failure only (EXPIRE NX), and returns the new count.
func (s *ThrottleStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, attemptKeyPrefix+key)
	pipe.ExpireNX(ctx, attemptKeyPrefix+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment login attempts: %w", err)
	}
	return incr.Val(), nil
}

// Lockout returns the lockout deadline for the key, or a zero time when the
// key is not locked out.
func (s *ThrottleStore) Lockout(ctx context.Context, key string) (time.Time, error) {
	val, err := s.client.Get(ctx, lockoutKeyPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get lockout: %w", err)
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse lockout deadline: %w", err)
	}
	return time.Unix(unix, 0).UTC(), nil
}

// SetLockout records the lockout deadline, expiring the key with it.
func (s *ThrottleStore) SetLockout(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, lockoutKeyPrefix+key, until.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("set lockout: %w", err)
	}
	return nil
}

// Clear removes both the counter and any lockout for the key.
func (s *ThrottleStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, attemptKeyPrefix+key, lockoutKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear throttle state: %w", err)
	}
	return nil
}
