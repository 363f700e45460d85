package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/core/service"
)

// RequireSuperuser gates a route group on the superuser role. Must run after
// Auth.
func RequireSuperuser(gate *service.AuthorizationGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := gate.RequireSuperuser(Identity(c)); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireRole gates a route on a named role (superuser always passes).
func RequireRole(gate *service.AuthorizationGate, roleName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := gate.RequireRole(Identity(c), roleName); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireCapability gates a route on a capability grant, matched by the
// hierarchical longest-prefix rule.
func RequireCapability(gate *service.AuthorizationGate, capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := gate.RequireCapability(Identity(c), capability); err != nil {
				return err
			}
			return next(c)
		}
	}
}
