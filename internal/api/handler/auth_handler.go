package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/api/metrics"
	"github.com/gatehouse/identity-system/internal/api/middleware"
	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

type AuthHandler struct {
	users    ports.UserService
	sessions ports.SessionService
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
}

func NewAuthHandler(users ports.UserService, sessions ports.SessionService, throttle ports.LoginThrottle, audit ports.AuditRecorder) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, throttle: throttle, audit: audit}
}

type signupRequest struct {
	Email    string `json:"email"     validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"     validate:"required"`
	Region   string `json:"region,omitempty"`
	Password string `json:"password"  validate:"required"`
}

type loginRequest struct {
	Email      string `json:"email"    validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type updateProfileRequest struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Region   string `json:"region,omitempty"`
}

type setAvatarRequest struct {
	// AvatarRef is the opaque reference handed back by the upload layer,
	// which owns size caps and extension checks. Empty clears the avatar.
	AvatarRef string `json:"avatar_ref"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

// Signup registers a new account with the default role.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Region:   req.Region,
		Password: req.Password,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	h.recordAudit(c, domain.AuditEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditSignup})
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates email/password and opens a session. Requests from a
// locked-out client are rejected before credentials are even looked at.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	clientKey := c.RealIP()

	remaining, locked, err := h.throttle.CheckLocked(ctx, clientKey)
	if err != nil {
		return err
	}
	if locked {
		metrics.LoginsTotal.WithLabelValues("locked_out").Inc()
		return &domain.LockoutError{Remaining: remaining}
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrAccountInactive) {
			if lockedNow, terr := h.throttle.RecordFailure(ctx, clientKey); terr == nil && lockedNow {
				metrics.LockoutsTotal.Inc()
				h.recordAudit(c, domain.AuditEvent{Email: req.Email, Action: domain.AuditLockout})
			}
			metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
			h.recordAudit(c, domain.AuditEvent{Email: req.Email, Action: domain.AuditLoginFailure})
		}
		return err
	}

	if err := h.throttle.RecordSuccess(ctx, clientKey); err != nil {
		return err
	}

	token, err := h.sessions.Create(ctx, user, req.RememberMe)
	if err != nil {
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.SessionsCreatedTotal.WithLabelValues(strconv.FormatBool(req.RememberMe)).Inc()
	h.recordAudit(c, domain.AuditEvent{UserID: user.ID, Email: user.Email, Action: domain.AuditLoginSuccess})

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout revokes the bearer session. Always succeeds: revoking an unknown or
// already revoked token is a no-op.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := bearerToken(c)
	if token != "" {
		if err := h.sessions.Revoke(c.Request().Context(), token); err != nil {
			return err
		}
	}
	if identity := middleware.Identity(c); identity != nil {
		h.recordAudit(c, domain.AuditEvent{UserID: identity.UserID, Email: identity.Email, Action: domain.AuditLogout})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the resolved identity behind the session.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Identity
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}

// UpdateMe edits the caller's own profile.
//
// @Summary      Update own profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Profile edits"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), identity.UserID, ports.UpdateProfileInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Region:   req.Region,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the caller's password after re-verifying the
// current one.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Param        body  body  changePasswordRequest  true  "Password change"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/me/password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.users.ChangePassword(c.Request().Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	h.recordAudit(c, domain.AuditEvent{UserID: identity.UserID, Email: identity.Email, Action: domain.AuditPasswordChange})
	return c.NoContent(http.StatusNoContent)
}

// SetAvatar stores the avatar reference on the caller's account.
//
// @Summary      Set own avatar reference
// @Tags         auth
// @Accept       json
// @Param        body  body  setAvatarRequest  true  "Avatar reference"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Router       /auth/me/avatar [put]
func (h *AuthHandler) SetAvatar(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req setAvatarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.users.SetAvatar(c.Request().Context(), identity.UserID, req.AvatarRef); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// recordAudit enqueues an audit event stamped with now and the request id.
func (h *AuthHandler) recordAudit(c echo.Context, event domain.AuditEvent) {
	event.At = time.Now().UTC()
	event.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	h.audit.Record(event)
}

func bearerToken(c echo.Context) string {
	if token := middleware.SessionToken(c); token != "" {
		return token
	}
	// logout is reachable without the Auth middleware; fall back to the header
	header := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) {
		return header[len(prefix):]
	}
	return ""
}

func registrationOutcome(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return "validation_failed"
	}
	if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicatePhone) {
		return "conflict"
	}
	return "error"
}

func loginOutcome(err error) string {
	if errors.Is(err, domain.ErrAccountInactive) {
		return "inactive"
	}
	return "invalid_credentials"
}
