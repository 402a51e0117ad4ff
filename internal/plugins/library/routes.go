package library

import (
	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// RegisterRoutes sets up the library routes. The catalog is public; member
// circulation needs any signed-in user; catalog management and the
// circulation desk sit behind the librarian guard (staff roles pass too).
func RegisterRoutes(e *echo.Echo, h *Handler, memberGuard, librarianGuard auth.Guard) {
	// Public catalog.
	e.GET("/api/library/books", h.ListBooks)
	e.GET("/api/library/books/:id", h.GetBook)

	// Member circulation.
	member := e.Group("/api/library", memberGuard.Middleware())
	member.POST("/books/:id/borrow", h.Borrow)
	member.POST("/loans/:id/return", h.Return)
	member.GET("/loans", h.MyLoans)

	// Librarian management area.
	lms := e.Group("/api/lms", librarianGuard.Middleware())
	lms.POST("/books", h.AddBook)
	lms.PUT("/books/:id", h.UpdateBook)
	lms.DELETE("/books/:id", h.RemoveBook)
	lms.GET("/loans", h.ActiveLoans)
	lms.POST("/loans/:id/return", h.RecordReturn)
}
