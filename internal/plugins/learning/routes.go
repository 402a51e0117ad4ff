package learning

import (
	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// RegisterRoutes sets up the learning routes. Browsing is public; enrolling
// and progress need any signed-in user; course management is staff-only.
func RegisterRoutes(e *echo.Echo, h *Handler, learnerGuard, staffGuard auth.Guard) {
	e.GET("/api/learning/courses", h.ListCourses)
	e.GET("/api/learning/courses/:id", h.GetCourse)

	learner := e.Group("/api/learning", learnerGuard.Middleware())
	learner.POST("/courses/:id/enroll", h.Enroll)
	learner.POST("/courses/:id/progress", h.CompleteLesson)
	learner.GET("/enrollments", h.MyEnrollments)

	manage := e.Group("/api/learning/manage", staffGuard.Middleware())
	manage.GET("/courses", h.AllCourses)
	manage.POST("/courses", h.CreateCourse)
	manage.PUT("/courses/:id", h.UpdateCourse)
}
