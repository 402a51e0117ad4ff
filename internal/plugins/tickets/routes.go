package tickets

import (
	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// RegisterRoutes sets up the ticket routes. The requester side uses the
// demo-bypassed guard (always passes, attaches a session when present);
// the support desk sits behind the staff guard.
func RegisterRoutes(e *echo.Echo, h *Handler, demoGuard, staffGuard auth.Guard) {
	area := e.Group("/api/tickets", demoGuard.Middleware())
	area.POST("", h.File)
	area.GET("/mine", h.MyTickets)
	area.GET("/:id", h.Get)
	area.GET("/:id/messages", h.Thread)
	area.POST("/:id/messages", h.Reply)

	desk := e.Group("/api/support", staffGuard.Middleware())
	desk.GET("/tickets", h.List)
	desk.POST("/tickets/:id/status", h.Transition)
}
