package auth

import (
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "jambushrusti_session"

// Handler handles HTTP requests for authentication (signup, login, logout,
// current-user). Handlers are thin: they bind the request, call the service,
// and shape the JSON response. No business logic lives here.
type Handler struct {
	service AuthService
	manager *Manager
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, manager *Manager) *Handler {
	return &Handler{service: service, manager: manager}
}

// Signup processes an account creation request (POST /auth/signup).
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if msg := validateSignupRequest(&req); msg != "" {
		return c.JSON(http.StatusOK, SignupResult{Error: msg})
	}

	result := h.service.Signup(c.Request().Context(), SignupInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})

	return c.JSON(http.StatusOK, result)
}

// Login processes a login request (POST /auth/login). On success it sets the
// session cookie and returns the role-specific landing route; the client
// navigates there. The redirect target may be overridden by a safe ?next=
// parameter preserved by a guard.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusOK, LoginResult{Error: "email and password are required"})
	}

	result := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if !result.Success {
		return c.JSON(http.StatusOK, result)
	}

	setSessionCookie(c, result.Token())

	// Resume an interrupted navigation if the login page carried one.
	// Only same-site relative paths are honored, never absolute URLs.
	if next := c.QueryParam("next"); isSafeRedirect(next) {
		result.RedirectTo = next
	}

	return c.JSON(http.StatusOK, result)
}

// Logout destroys the session and clears the cookie (POST /auth/logout).
// Always succeeds from the client's point of view.
func (h *Handler) Logout(c echo.Context) error {
	h.service.Logout(c.Request().Context(), getSessionToken(c))
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Me returns the current authenticated user (GET /auth/me). Clients call
// this on load to restore their signed-in state. An anonymous visitor gets
// a 200 with user=null rather than a 401: not being signed in is a normal
// state, not an error.
func (h *Handler) Me(c echo.Context) error {
	token := getSessionToken(c)
	if token == "" {
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}

	session, err := h.manager.Lookup(c.Request().Context(), token)
	if err != nil {
		clearSessionCookie(c)
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user": UserProfile{
			ID:          session.UserID,
			Email:       session.Email,
			DisplayName: session.DisplayName,
			Role:        session.Role,
		},
	})
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
// No MaxAge: the cookie is a session cookie, and the Redis TTL is the
// actual lifetime authority.
func setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// --- Validation helpers ---

// validateSignupRequest performs basic server-side validation on the signup
// request. Returns an error message or empty string.
func validateSignupRequest(req *SignupRequest) string {
	if req.Email == "" {
		return "email is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "email is not valid"
	}
	if len(req.FullName) > 100 {
		return "name must be at most 100 characters"
	}
	if req.Password == "" {
		return "password is required"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(req.Password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}

// isSafeRedirect reports whether a ?next= value is a same-site relative
// path. Rejects absolute URLs, protocol-relative URLs ("//evil.example"),
// and anything that fails to parse.
func isSafeRedirect(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return false
	}
	u, err := url.Parse(next)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
