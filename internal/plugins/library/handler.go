package library

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// Handler handles HTTP requests for the library. Thin layer: bind, call the
// service, shape JSON.
type Handler struct {
	service LibraryService
}

// NewHandler creates a new library handler.
func NewHandler(service LibraryService) *Handler {
	return &Handler{service: service}
}

// ListBooks returns a page of the catalog (GET /api/library/books).
func (h *Handler) ListBooks(c echo.Context) error {
	page := intQuery(c, "page", 1)
	perPage := intQuery(c, "per_page", 20)

	books, total, err := h.service.BrowseBooks(c.Request().Context(), c.QueryParam("category"), page, perPage)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"books": books,
		"total": total,
		"page":  page,
	})
}

// GetBook returns one catalog entry (GET /api/library/books/:id).
func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.service.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Borrow takes a copy out for the signed-in member (POST /api/library/books/:id/borrow).
func (h *Handler) Borrow(c echo.Context) error {
	loan, err := h.service.BorrowBook(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, loan)
}

// Return closes one of the member's own loans (POST /api/library/loans/:id/return).
func (h *Handler) Return(c echo.Context) error {
	if err := h.service.ReturnBook(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// MyLoans lists the member's borrowing history (GET /api/library/loans).
func (h *Handler) MyLoans(c echo.Context) error {
	loans, err := h.service.MyLoans(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

// --- Librarian endpoints ---

// AddBook creates a catalog entry (POST /api/lms/books).
func (h *Handler) AddBook(c echo.Context) error {
	var input BookInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	book, err := h.service.AddBook(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook edits a catalog entry (PUT /api/lms/books/:id).
func (h *Handler) UpdateBook(c echo.Context) error {
	var input BookInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	book, err := h.service.UpdateBook(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// RemoveBook deletes a catalog entry (DELETE /api/lms/books/:id).
func (h *Handler) RemoveBook(c echo.Context) error {
	if err := h.service.RemoveBook(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ActiveLoans lists outstanding loans (GET /api/lms/loans?overdue=true).
func (h *Handler) ActiveLoans(c echo.Context) error {
	loans, err := h.service.ActiveLoans(c.Request().Context(), c.QueryParam("overdue") == "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

// RecordReturn closes any loan at the desk (POST /api/lms/loans/:id/return).
func (h *Handler) RecordReturn(c echo.Context) error {
	if err := h.service.RecordReturn(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
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
