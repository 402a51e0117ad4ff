package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/middleware"
)

// RegisterRoutes sets up the auth endpoints on the given Echo instance.
// All auth routes are public (no session required) -- the route guards are
// exported separately for other plugins to wrap their route groups with.
//
// POST endpoints are rate-limited to slow brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for signup.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/auth/signup", h.Signup, middleware.RateLimit(5, time.Minute))
	e.POST("/auth/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me)
}
