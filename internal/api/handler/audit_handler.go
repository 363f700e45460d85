package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/identity-system/internal/core/ports"
)

// AuditHandler exposes the account audit trail to superusers.
type AuditHandler struct {
	audit ports.AuditService
}

func NewAuditHandler(audit ports.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns recent audit events, newest first.
//
// @Summary      List audit events
// @Tags         admin
// @Produce      json
// @Param        email  query     string  false  "Filter by account email"
// @Param        limit  query     int     false  "Maximum events to return"
// @Success      200    {array}   domain.AuditEvent
// @Router       /admin/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	events, err := h.audit.List(c.Request().Context(), c.QueryParam("email"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
