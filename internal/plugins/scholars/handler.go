package scholars

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// Handler handles HTTP requests for the research portal.
type Handler struct {
	service ScholarService
}

// NewHandler creates a new scholars handler.
func NewHandler(service ScholarService) *Handler {
	return &Handler{service: service}
}

// Join onboards the signed-in member as a scholar (POST /api/research/join).
// The upgrade failing does not fail the request; the member can use the
// portal and the role catches up on a later visit.
func (h *Handler) Join(c echo.Context) error {
	h.service.Join(c.Request().Context(), auth.GetUserID(c))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListPublished returns published articles (GET /api/research/articles).
func (h *Handler) ListPublished(c echo.Context) error {
	articles, err := h.service.PublishedArticles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

// GetArticle returns one article (GET /api/research/articles/:id). Drafts
// only resolve for their author.
func (h *Handler) GetArticle(c echo.Context) error {
	article, err := h.service.GetArticle(c.Request().Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article)
}

// MyArticles lists the scholar's own work (GET /api/research/mine).
func (h *Handler) MyArticles(c echo.Context) error {
	articles, err := h.service.MyArticles(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

// Write creates a draft (POST /api/research/articles).
func (h *Handler) Write(c echo.Context) error {
	var input ArticleInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	article, err := h.service.WriteArticle(c.Request().Context(), auth.GetUserID(c), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, article)
}

// Edit updates an article (PUT /api/research/articles/:id).
func (h *Handler) Edit(c echo.Context) error {
	var input ArticleInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	article, err := h.service.EditArticle(c.Request().Context(), auth.GetUserID(c), c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article)
}

// Publish flips a draft to published (POST /api/research/articles/:id/publish).
func (h *Handler) Publish(c echo.Context) error {
	article, err := h.service.PublishArticle(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, article)
}

// Delete removes an article (DELETE /api/research/articles/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.DeleteArticle(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
