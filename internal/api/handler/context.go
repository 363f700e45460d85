package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/api/middleware"
	"github.com/gatehouse/identity-system/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// fast-fails before any service call: a missing identity means the
// middleware did not run or did not authenticate the request.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity := middleware.Identity(c)
	if identity == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return identity, nil
}
