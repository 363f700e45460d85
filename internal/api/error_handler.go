package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// FieldErrors is present only for validation failures so transport layers
// can render field-level messages without re-deriving validation logic.
type errorResponse struct {
	ErrorKind   string            `json:"error_kind"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Error kinds, the coarse taxonomy callers can switch on.
const (
	kindValidation     = "validation_error"
	kindConflict       = "conflict_error"
	kindAuthentication = "authentication_error"
	kindAuthorization  = "authorization_error"
	kindNotFound       = "not_found"
	kindInternal       = "internal_error"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error_kind", "message", "field_errors"?}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := kindValidation
		if he.Code == http.StatusUnauthorized {
			kind = kindAuthentication
		} else if he.Code == http.StatusNotFound {
			kind = kindNotFound
		}
		return he.Code, errorResponse{ErrorKind: kind, Message: fmt.Sprintf("%v", he.Message)}
	}

	// Collected field-level validation errors.
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{
			ErrorKind:   kindValidation,
			Message:     "validation failed",
			FieldErrors: ve.Fields,
		}
	}

	// A locked-out client gets a retry hint, never credential feedback.
	var le *domain.LockoutError
	if errors.As(err, &le) {
		return http.StatusTooManyRequests, errorResponse{ErrorKind: kindAuthentication, Message: le.Error()}
	}

	var riu *domain.RoleInUseError
	if errors.As(err, &riu) {
		return http.StatusConflict, errorResponse{ErrorKind: kindConflict, Message: riu.Error()}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountInactive):
		// identical external message regardless of cause; the real cause is
		// only in the logs, to prevent account enumeration
		return http.StatusUnauthorized, errorResponse{ErrorKind: kindAuthentication, Message: "invalid credentials"}

	case errors.Is(err, domain.ErrNoSession),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, domain.ErrUserHasNoRole):
		return http.StatusUnauthorized, errorResponse{ErrorKind: kindAuthentication, Message: err.Error()}

	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{ErrorKind: kindAuthorization, Message: "access forbidden"}

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusNotFound, errorResponse{ErrorKind: kindNotFound, Message: err.Error()}

	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrDuplicateRole):
		return http.StatusConflict, errorResponse{ErrorKind: kindConflict, Message: err.Error()}

	case errors.Is(err, domain.ErrInvalidRoleName),
		errors.Is(err, domain.ErrInvalidDisplayName),
		errors.Is(err, domain.ErrReservedRoleName):
		return http.StatusBadRequest, errorResponse{ErrorKind: kindValidation, Message: err.Error()}

	case errors.Is(err, domain.ErrSystemRoleProtected),
		errors.Is(err, domain.ErrCannotDefaultSuperuser),
		errors.Is(err, domain.ErrCannotDeleteLastSuperuser),
		errors.Is(err, domain.ErrCannotDeleteSelf):
		return http.StatusUnprocessableEntity, errorResponse{ErrorKind: kindConflict, Message: err.Error()}
	}

	// Unexpected error (storage failures included): log the real cause,
	// return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{ErrorKind: kindInternal, Message: "internal server error"}
}
