package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// WantsJSON returns true if the client expects a JSON response rather than
// a browser navigation. The SPA frontend and API clients send an explicit
// Accept: application/json (or the XHR marker header); plain browser
// navigations send Accept: text/html and get redirects instead of 401/403
// bodies.
func WantsJSON(c echo.Context) bool {
	if strings.Contains(c.Request().Header.Get("Accept"), "application/json") {
		return true
	}
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest"
}
