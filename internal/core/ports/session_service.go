package ports

import (
	"context"
	"time"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// SessionService issues, resolves and revokes session tokens.
type SessionService interface {
	// Create opens a session for an authenticated user and returns the
	// opaque token handed to the client. rememberMe selects the long-lived
	// expiry policy; otherwise the session is scoped to the client session.
	Create(ctx context.Context, user *domain.User, rememberMe bool) (string, error)
	// Resolve validates the token and returns the identity behind it. The
	// user and role are re-fetched on every call so deactivation and role
	// changes take effect on the next request, not at the next login.
	Resolve(ctx context.Context, token string) (*domain.Identity, error)
	// Revoke ends the session. Idempotent: revoking an unknown or already
	// revoked token is not an error.
	Revoke(ctx context.Context, token string) error
}

// SessionStore is the expiring server-side store behind session tokens.
// Losing an entry only forces a re-login, so a fast non-durable store fits.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	// Find returns domain.ErrNoSession for unknown or expired-from-store ids.
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
