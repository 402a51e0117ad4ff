package learning

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// Handler handles HTTP requests for the learning area.
type Handler struct {
	service LearningService
}

// NewHandler creates a new learning handler.
func NewHandler(service LearningService) *Handler {
	return &Handler{service: service}
}

// ListCourses returns published courses (GET /api/learning/courses).
func (h *Handler) ListCourses(c echo.Context) error {
	courses, err := h.service.BrowseCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"courses": courses})
}

// GetCourse returns one published course (GET /api/learning/courses/:id).
func (h *Handler) GetCourse(c echo.Context) error {
	course, err := h.service.GetCourse(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Enroll signs the member up (POST /api/learning/courses/:id/enroll).
func (h *Handler) Enroll(c echo.Context) error {
	enrollment, err := h.service.Enroll(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, enrollment)
}

// MyEnrollments lists the member's courses (GET /api/learning/enrollments).
func (h *Handler) MyEnrollments(c echo.Context) error {
	enrollments, err := h.service.MyEnrollments(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"enrollments": enrollments})
}

// CompleteLesson advances progress (POST /api/learning/courses/:id/progress).
func (h *Handler) CompleteLesson(c echo.Context) error {
	enrollment, err := h.service.CompleteLesson(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

// --- Staff endpoints ---

// AllCourses lists every course (GET /api/learning/manage/courses).
func (h *Handler) AllCourses(c echo.Context) error {
	courses, err := h.service.AllCourses(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"courses": courses})
}

// CreateCourse adds a course (POST /api/learning/manage/courses).
func (h *Handler) CreateCourse(c echo.Context) error {
	var input CourseInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	course, err := h.service.CreateCourse(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

// UpdateCourse edits a course (PUT /api/learning/manage/courses/:id).
func (h *Handler) UpdateCourse(c echo.Context) error {
	var input CourseInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	course, err := h.service.UpdateCourse(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}
