package scholars

import (
	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// RegisterRoutes sets up the research portal routes. Published reading is
// public (the optional guard attaches a session when one exists, so authors
// can open their own drafts); joining needs any signed-in member; authoring
// sits behind the scholar guard.
func RegisterRoutes(e *echo.Echo, h *Handler, optionalGuard, memberGuard, scholarGuard auth.Guard) {
	e.GET("/api/research/articles", h.ListPublished)
	e.GET("/api/research/articles/:id", h.GetArticle, optionalGuard.Middleware())

	e.POST("/api/research/join", h.Join, memberGuard.Middleware())

	portal := e.Group("/api/research", scholarGuard.Middleware())
	portal.GET("/mine", h.MyArticles)
	portal.POST("/articles", h.Write)
	portal.PUT("/articles/:id", h.Edit)
	portal.POST("/articles/:id/publish", h.Publish)
	portal.DELETE("/articles/:id", h.Delete)
}
