package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across services. The HTTP layer maps these to
// status codes and error kinds in one place (internal/api/error_handler.go).
var (
	// Authentication. ErrInvalidCredentials is returned for both an unknown
	// email and a wrong password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")

	// Sessions.
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrUserHasNoRole  = errors.New("user has no role assigned")
	ErrUserInactive   = errors.New("user is inactive")

	// Users.
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email address already in use")
	ErrDuplicatePhone = errors.New("phone number already in use")

	ErrCannotDeleteSelf          = errors.New("cannot delete own account")
	ErrCannotDeleteLastSuperuser = errors.New("cannot delete the last superuser")

	// Roles.
	ErrRoleNotFound           = errors.New("role not found")
	ErrDuplicateRole          = errors.New("role name already in use")
	ErrInvalidRoleName        = errors.New("role name must be 2-50 lowercase letters, digits or underscores")
	ErrInvalidDisplayName     = errors.New("display name must be 2-100 characters")
	ErrReservedRoleName       = errors.New("role name is reserved for system roles")
	ErrSystemRoleProtected    = errors.New("system roles cannot be deleted or renamed")
	ErrCannotDefaultSuperuser = errors.New("the superuser role cannot be the default role")

	// Authorization.
	ErrForbidden = errors.New("access forbidden")
)

// ValidationError carries every field-level problem found in one pass so a
// caller can render them all at once instead of fixing inputs one by one.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidationError returns an empty ValidationError ready to collect fields.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for a field. Only the first message per field is kept.
func (e *ValidationError) Add(field, message string) {
	if _, seen := e.Fields[field]; !seen {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns the error when at least one field failed, nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// RoleInUseError is returned when deleting a role that users still reference.
type RoleInUseError struct {
	Count int64
}

func (e *RoleInUseError) Error() string {
	return fmt.Sprintf("role is assigned to %d user(s)", e.Count)
}

// LockoutError is returned when a client key is temporarily locked out after
// too many failed login attempts.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.Remaining.Round(time.Second))
}
