package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/api/metrics"
	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// RoleHandler is the superuser-gated surface over the role catalog.
type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type createRoleRequest struct {
	Name        string `json:"name"         validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
}

type updateRoleRequest struct {
	DisplayName string          `json:"display_name" validate:"required"`
	Permissions map[string]bool `json:"permissions"`
}

type roleCatalogResponse struct {
	System []*domain.Role `json:"system"`
	Custom []*domain.Role `json:"custom"`
}

// List returns the role catalog partitioned into system and custom roles.
//
// @Summary      List roles
// @Tags         admin
// @Produce      json
// @Success      200  {object}  roleCatalogResponse
// @Router       /admin/roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	system, err := h.roles.SystemRoles(ctx)
	if err != nil {
		return err
	}
	custom, err := h.roles.CustomRoles(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roleCatalogResponse{System: system, Custom: custom})
}

// Create adds a custom role to the catalog.
//
// @Summary      Create a role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createRoleRequest  true  "Role details"
// @Success      201   {object}  domain.Role
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role, err := h.roles.Create(c.Request().Context(), req.Name, req.DisplayName)
	if err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, role)
}

// Update edits a role's display name and permission set.
//
// @Summary      Update a role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Role id"
// @Param        body  body      updateRoleRequest  true  "Role edits"
// @Success      200   {object}  domain.Role
// @Failure      404   {object}  errorResponse
// @Router       /admin/roles/{id} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role, err := h.roles.Update(c.Request().Context(), c.Param("id"), req.DisplayName, req.Permissions)
	if err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, role)
}

// Delete removes a custom role that no user references.
//
// @Summary      Delete a role
// @Tags         admin
// @Param        id  path  string  true  "Role id"
// @Success      204
// @Failure      409  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /admin/roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.roles.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// SetDefault marks a role as the one assigned to new signups.
//
// @Summary      Set the default role
// @Tags         admin
// @Param        id  path  string  true  "Role id"
// @Success      204
// @Failure      422  {object}  errorResponse
// @Router       /admin/roles/{id}/default [put]
func (h *RoleHandler) SetDefault(c echo.Context) error {
	if err := h.roles.SetDefault(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.RoleMutationsTotal.WithLabelValues("set_default").Inc()
	return c.NoContent(http.StatusNoContent)
}
