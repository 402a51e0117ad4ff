package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/middleware"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
)

// Guard protects a route group. Each protected area of the platform builds
// its own Guard: the admin console accepts admins, the library management
// pages accept librarians, and so on. Areas open to every signed-in user
// leave AllowedRoles empty.
type Guard struct {
	// Manager validates tokens and resolves the current role.
	Manager *Manager

	// LoginPath is where unauthenticated visitors are sent. The original
	// URL is preserved in a ?next= query parameter so login can return
	// them to where they were headed.
	LoginPath string

	// AllowedRoles lists the roles the area accepts. Empty means any
	// authenticated user.
	AllowedRoles []Role

	// DemoBypass disables the guard entirely. Used for areas that run in
	// open demo mode; when set, a valid session is still injected into
	// the context if one is present, but nothing is required.
	DemoBypass bool
}

// Middleware returns the Echo middleware enforcing this guard.
func (g Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)

			if g.DemoBypass {
				// Best effort: attach the session when there is one so
				// handlers can still personalize, but never block.
				if token != "" {
					if session, err := g.Manager.Lookup(c.Request().Context(), token); err == nil {
						c.Set(contextKeySession, session)
						c.Set(contextKeyUserID, session.UserID)
					}
				}
				return next(c)
			}

			if token == "" {
				return g.handleUnauthenticated(c)
			}

			session, err := g.Manager.Lookup(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return g.handleUnauthenticated(c)
			}

			if len(g.AllowedRoles) > 0 && !HasRole(session, g.AllowedRoles...) {
				return g.handleForbidden(c, session)
			}

			// Store session data in context for downstream handlers.
			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)

			return next(c)
		}
	}
}

// handleUnauthenticated responds to requests with no valid session: 401 JSON
// for API clients, otherwise a 303 to the area's login page with the original
// URL preserved in ?next= so a successful login can resume it.
func (g Guard) handleUnauthenticated(c echo.Context) error {
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "authentication required",
		})
	}

	target := g.LoginPath
	if original := c.Request().RequestURI; original != "" && original != "/" {
		target += "?next=" + url.QueryEscape(original)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// handleForbidden responds to authenticated requests whose role the area
// does not accept: 403 JSON for API clients, otherwise a 303 to the user's
// own landing area. Turned-away users land somewhere that works for them
// instead of staring at an error page.
func (g Guard) handleForbidden(c echo.Context, session *Session) error {
	if middleware.WantsJSON(c) {
		return c.JSON(http.StatusForbidden, map[string]string{
			"error":   "forbidden",
			"message": "your role does not have access to this area",
		})
	}
	return c.Redirect(http.StatusSeeOther, session.Role.LandingPath())
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (guard not applied, or
// a demo-bypassed area with no session).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}
