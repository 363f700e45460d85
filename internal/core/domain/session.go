package domain

import "time"

// Session is the server-side record behind a session token. The role name is
// a snapshot taken at login for observability only; authorization decisions
// re-fetch the user's current role at every resolution.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RoleSnapshot string    `json:"role_snapshot"`
	RememberMe   bool      `json:"remember_me"`
	CreatedAt    time.Time `json:"created_at"`
	// ExpiresAt is zero for session-scoped logins, whose lifetime is tied to
	// the client's own session rather than a fixed server-side deadline.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session carries a deadline that has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Identity is the result of resolving a session token: the authenticated
// user together with their current (freshly loaded) role.
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     *Role  `json:"role"`
}

// IsSuperuser reports whether the identity currently holds the superuser role.
func (i *Identity) IsSuperuser() bool {
	return i.Role != nil && i.Role.Name == RoleSuperuser
}
