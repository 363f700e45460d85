package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// Context keys set by Auth.
const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// Auth resolves the bearer session token and injects the live identity into
// the request context. Resolution re-checks the user's active flag and role
// on every request, so revocation and deactivation bite immediately.
func Auth(sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			identity, err := sessions.Resolve(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(identityKey, identity)
			c.Set(tokenKey, parts[1])

			return next(c)
		}
	}
}

// Identity returns the identity injected by Auth, or nil when the request is
// anonymous.
func Identity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// SessionToken returns the raw bearer token injected by Auth.
func SessionToken(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}
