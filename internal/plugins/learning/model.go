// Package learning implements the online course catalog: published courses,
// member enrollments, and per-enrollment lesson progress.
package learning

import "time"

// Course is an online course. Unpublished courses are only visible to staff.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       string    `json:"level"`
	LessonCount int       `json:"lesson_count"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
}

// Enrollment ties a member to a course. One row per user and course; the
// unique key in the schema enforces it.
type Enrollment struct {
	ID               string    `json:"id"`
	CourseID         string    `json:"course_id"`
	UserID           string    `json:"user_id"`
	CompletedLessons int       `json:"completed_lessons"`
	EnrolledAt       time.Time `json:"enrolled_at"`
}

// EnrollmentDetail is an enrollment joined with its course for list views.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle string `json:"course_title"`
	LessonCount int    `json:"lesson_count"`
}

// Completed reports whether every lesson of the course is done.
func (e *EnrollmentDetail) Completed() bool {
	return e.LessonCount > 0 && e.CompletedLessons >= e.LessonCount
}

// CourseInput is the validated input for creating or updating a course.
type CourseInput struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Level       string `json:"level" form:"level"`
	LessonCount int    `json:"lesson_count" form:"lesson_count"`
	Published   bool   `json:"published" form:"published"`
}
