package learning

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jambushrusti/platform/internal/apperror"
)

// courseLevels are the accepted difficulty labels.
var courseLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

// LearningService defines the business logic contract for courses.
type LearningService interface {
	// Learner operations.
	BrowseCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
	Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error)
	MyEnrollments(ctx context.Context, userID string) ([]EnrollmentDetail, error)
	CompleteLesson(ctx context.Context, userID, courseID string) (*Enrollment, error)

	// Staff operations.
	AllCourses(ctx context.Context) ([]Course, error)
	CreateCourse(ctx context.Context, input CourseInput) (*Course, error)
	UpdateCourse(ctx context.Context, id string, input CourseInput) (*Course, error)
}

// learningService implements LearningService.
type learningService struct {
	repo CourseRepository
}

// NewLearningService creates a new learning service.
func NewLearningService(repo CourseRepository) LearningService {
	return &learningService{repo: repo}
}

// BrowseCourses lists published courses.
func (s *learningService) BrowseCourses(ctx context.Context) ([]Course, error) {
	return s.repo.ListCourses(ctx, true)
}

// GetCourse retrieves a published course. Unpublished courses look like
// they don't exist to learners.
func (s *learningService) GetCourse(ctx context.Context, id string) (*Course, error) {
	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, apperror.NewNotFound("course not found")
	}
	return course, nil
}

// Enroll signs the member up for a published course. Enrolling twice
// surfaces the structured duplicate kind from the repository untouched.
func (s *learningService) Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}

	enrollment := &Enrollment{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		UserID:     userID,
		EnrolledAt: time.Now().UTC(),
	}

	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		if apperror.IsKind(err, apperror.KindDuplicateEnrollment) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}

	slog.Info("course enrollment",
		slog.String("user_id", userID),
		slog.String("course_id", courseID),
	)

	return enrollment, nil
}

// MyEnrollments returns the member's enrollments with progress.
func (s *learningService) MyEnrollments(ctx context.Context, userID string) ([]EnrollmentDetail, error) {
	return s.repo.ListEnrollmentsForUser(ctx, userID)
}

// CompleteLesson advances the member's progress by one lesson, capped at
// the course's lesson count.
func (s *learningService) CompleteLesson(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	course, err := s.repo.FindCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.repo.FindEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if enrollment.CompletedLessons >= course.LessonCount {
		return enrollment, nil
	}

	enrollment.CompletedLessons++
	if err := s.repo.UpdateProgress(ctx, enrollment.ID, enrollment.CompletedLessons); err != nil {
		return nil, apperror.NewInternal(err)
	}

	if enrollment.CompletedLessons == course.LessonCount {
		slog.Info("course completed",
			slog.String("user_id", userID),
			slog.String("course_id", courseID),
		)
	}

	return enrollment, nil
}

// AllCourses lists every course, published or not, for staff.
func (s *learningService) AllCourses(ctx context.Context) ([]Course, error) {
	return s.repo.ListCourses(ctx, false)
}

// CreateCourse adds a course to the catalog.
func (s *learningService) CreateCourse(ctx context.Context, input CourseInput) (*Course, error) {
	if msg := validateCourseInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	course := &Course{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Level:       input.Level,
		LessonCount: input.LessonCount,
		Published:   input.Published,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, apperror.NewInternal(err)
	}

	return course, nil
}

// UpdateCourse edits a course.
func (s *learningService) UpdateCourse(ctx context.Context, id string, input CourseInput) (*Course, error) {
	if msg := validateCourseInput(&input); msg != "" {
		return nil, apperror.NewValidation(msg)
	}

	course, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	course.Title = strings.TrimSpace(input.Title)
	course.Description = strings.TrimSpace(input.Description)
	course.Level = input.Level
	course.LessonCount = input.LessonCount
	course.Published = input.Published

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}

	return course, nil
}

// validateCourseInput checks the course fields. Returns an error message or
// empty string.
func validateCourseInput(input *CourseInput) string {
	if strings.TrimSpace(input.Title) == "" {
		return "title is required"
	}
	if !courseLevels[input.Level] {
		return "level must be beginner, intermediate, or advanced"
	}
	if input.LessonCount < 1 {
		return "lesson count must be at least 1"
	}
	return ""
}
