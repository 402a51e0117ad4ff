package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// Handler handles HTTP requests for the admin area.
type Handler struct {
	service AdminService
}

// NewHandler creates a new admin handler.
func NewHandler(service AdminService) *Handler {
	return &Handler{service: service}
}

// ListAccounts returns a page of accounts (GET /api/admin/users).
func (h *Handler) ListAccounts(c echo.Context) error {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 25)

	users, total, err := h.service.ListAccounts(c.Request().Context(), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"users": users,
		"total": total,
		"page":  page,
	})
}

// ChangeRole assigns a role to an account (PUT /api/admin/users/:id/role).
func (h *Handler) ChangeRole(c echo.Context) error {
	var body struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	role := auth.Role(body.Role)
	if !role.IsValid() {
		return apperror.NewBadRequest("unknown role")
	}

	actor := auth.GetSession(c)
	if err := h.service.ChangeRole(c.Request().Context(), actor, c.Param("id"), role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_id": c.Param("id"),
		"role":    role,
	})
}

// intQuery reads an integer query parameter with a default.
func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	var n int
	for _, r := range v {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return def
		}
	}
	return n
}
