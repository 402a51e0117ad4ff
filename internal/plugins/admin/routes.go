package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// RegisterRoutes sets up the admin routes behind the staff guard.
func RegisterRoutes(e *echo.Echo, h *Handler, staffGuard auth.Guard) {
	area := e.Group("/api/admin", staffGuard.Middleware())
	area.GET("/users", h.ListAccounts)
	area.PUT("/users/:id/role", h.ChangeRole)
}
