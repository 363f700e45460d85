package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// UserHandler is the superuser-gated administrative surface over the user
// directory. Authorization is enforced by the RequireSuperuser middleware on
// the route group, not re-checked here.
type UserHandler struct {
	users ports.UserService
	audit ports.AuditRecorder
}

func NewUserHandler(users ports.UserService, audit ports.AuditRecorder) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

type createUserRequest struct {
	Email    string `json:"email"     validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"     validate:"required"`
	Region   string `json:"region,omitempty"`
	Password string `json:"password"  validate:"required"`
	// RoleName explicitly assigns a role; empty means the default role.
	RoleName string `json:"role_name,omitempty"`
}

type setRoleRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// List returns every user in the directory.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns one user by id.
//
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create registers a user with an explicitly chosen role. Runs the same
// validators as public signup; only the role selection differs.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
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
		RoleName: req.RoleName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// SetRole reassigns a user's role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Param        id    path  string          true  "User id"
// @Param        body  body  setRoleRequest  true  "Target role"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/role [put]
func (h *UserHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.users.SetRole(c.Request().Context(), c.Param("id"), req.RoleID); err != nil {
		return err
	}
	h.recordAudit(c, c.Param("id"), domain.AuditRoleChange)
	return c.NoContent(http.StatusNoContent)
}

// SetActive enables or disables an account.
//
// @Summary      Enable or disable a user
// @Tags         admin
// @Accept       json
// @Param        id    path  string            true  "User id"
// @Param        body  body  setActiveRequest  true  "Target status"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{id}/active [put]
func (h *UserHandler) SetActive(c echo.Context) error {
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.users.SetActive(c.Request().Context(), c.Param("id"), req.Active); err != nil {
		return err
	}
	if !req.Active {
		h.recordAudit(c, c.Param("id"), domain.AuditDeactivate)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a user. The acting user's id comes from the resolved
// session, which makes the self-deletion guard meaningful.
//
// @Summary      Delete a user
// @Tags         admin
// @Param        id  path  string  true  "User id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	// The target's email survives in the audit trail after the row is gone.
	target, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), identity.UserID, target.ID); err != nil {
		return err
	}
	h.audit.Record(domain.AuditEvent{
		UserID:    target.ID,
		Email:     target.Email,
		Action:    domain.AuditDelete,
		At:        time.Now().UTC(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
	return c.NoContent(http.StatusNoContent)
}

// recordAudit looks up the target to stamp its email into the trail; a
// lookup failure only skips the audit entry, never the response.
func (h *UserHandler) recordAudit(c echo.Context, userID string, action domain.AuditAction) {
	target, err := h.users.Get(c.Request().Context(), userID)
	if err != nil {
		return
	}
	h.audit.Record(domain.AuditEvent{
		UserID:    target.ID,
		Email:     target.Email,
		Action:    action,
		At:        time.Now().UTC(),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

// Stats returns directory counts for the admin dashboard.
//
// @Summary      Directory statistics
// @Tags         admin
// @Produce      json
// @Success      200  {object}  ports.DirectoryStats
// @Router       /admin/stats [get]
func (h *UserHandler) Stats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
