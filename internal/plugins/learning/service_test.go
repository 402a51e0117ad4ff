package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jambushrusti/platform/internal/apperror"
)

// mockCourseRepo implements CourseRepository for testing.
type mockCourseRepo struct {
	listCoursesFn            func(ctx context.Context, publishedOnly bool) ([]Course, error)
	findCourseFn             func(ctx context.Context, id string) (*Course, error)
	createCourseFn           func(ctx context.Context, course *Course) error
	updateCourseFn           func(ctx context.Context, course *Course) error
	enrollFn                 func(ctx context.Context, enrollment *Enrollment) error
	findEnrollmentFn         func(ctx context.Context, userID, courseID string) (*Enrollment, error)
	listEnrollmentsForUserFn func(ctx context.Context, userID string) ([]EnrollmentDetail, error)
	updateProgressFn         func(ctx context.Context, enrollmentID string, completedLessons int) error
}

func (m *mockCourseRepo) ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error) {
	if m.listCoursesFn != nil {
		return m.listCoursesFn(ctx, publishedOnly)
	}
	return nil, nil
}

func (m *mockCourseRepo) FindCourse(ctx context.Context, id string) (*Course, error) {
	if m.findCourseFn != nil {
		return m.findCourseFn(ctx, id)
	}
	return nil, apperror.NewNotFound("course not found")
}

func (m *mockCourseRepo) CreateCourse(ctx context.Context, course *Course) error {
	if m.createCourseFn != nil {
		return m.createCourseFn(ctx, course)
	}
	return nil
}

func (m *mockCourseRepo) UpdateCourse(ctx context.Context, course *Course) error {
	if m.updateCourseFn != nil {
		return m.updateCourseFn(ctx, course)
	}
	return nil
}

func (m *mockCourseRepo) Enroll(ctx context.Context, enrollment *Enrollment) error {
	if m.enrollFn != nil {
		return m.enrollFn(ctx, enrollment)
	}
	return nil
}

func (m *mockCourseRepo) FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	if m.findEnrollmentFn != nil {
		return m.findEnrollmentFn(ctx, userID, courseID)
	}
	return nil, apperror.NewNotFound("enrollment not found")
}

func (m *mockCourseRepo) ListEnrollmentsForUser(ctx context.Context, userID string) ([]EnrollmentDetail, error) {
	if m.listEnrollmentsForUserFn != nil {
		return m.listEnrollmentsForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCourseRepo) UpdateProgress(ctx context.Context, enrollmentID string, completedLessons int) error {
	if m.updateProgressFn != nil {
		return m.updateProgressFn(ctx, enrollmentID, completedLessons)
	}
	return nil
}

func assertKind(t *testing.T, err error, kind string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", kind)
	}
	if !apperror.IsKind(err, kind) {
		t.Fatalf("expected kind %s, got %v", kind, err)
	}
}

func publishedCourse(id string, lessons int) *Course {
	return &Course{
		ID:          id,
		Title:       "Introduction to Jain Philosophy",
		Level:       "beginner",
		LessonCount: lessons,
		Published:   true,
		CreatedAt:   time.Now(),
	}
}

// --- Enroll Tests ---

func TestEnroll_Success(t *testing.T) {
	var captured *Enrollment
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 10), nil
		},
		enrollFn: func(ctx context.Context, enrollment *Enrollment) error {
			captured = enrollment
			return nil
		},
	}

	svc := NewLearningService(repo)
	enrollment, err := svc.Enroll(context.Background(), "user-123", "course-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.ID == "" {
		t.Error("expected enrollment ID to be generated")
	}
	if captured.UserID != "user-123" || captured.CourseID != "course-1" {
		t.Errorf("unexpected enrollment recorded: %+v", captured)
	}
	if captured.CompletedLessons != 0 {
		t.Errorf("expected fresh enrollment to start at 0 lessons, got %d", captured.CompletedLessons)
	}
}

func TestEnroll_DuplicateKeepsStructuredKind(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 10), nil
		},
		enrollFn: func(ctx context.Context, enrollment *Enrollment) error {
			return apperror.NewDuplicateEnrollment("you are already enrolled in this course")
		},
	}

	svc := NewLearningService(repo)
	_, err := svc.Enroll(context.Background(), "user-123", "course-1")
	assertKind(t, err, apperror.KindDuplicateEnrollment)
}

func TestEnroll_UnpublishedCourseLooksAbsent(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			c := publishedCourse(id, 10)
			c.Published = false
			return c, nil
		},
	}

	svc := NewLearningService(repo)
	_, err := svc.Enroll(context.Background(), "user-123", "course-1")
	assertKind(t, err, apperror.KindNotFound)
}

func TestEnroll_RepoFailureIsInternal(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 10), nil
		},
		enrollFn: func(ctx context.Context, enrollment *Enrollment) error {
			return errors.New("db connection lost")
		},
	}

	svc := NewLearningService(repo)
	_, err := svc.Enroll(context.Background(), "user-123", "course-1")
	assertKind(t, err, apperror.KindInternal)
}

// --- Progress Tests ---

func TestCompleteLesson_Advances(t *testing.T) {
	var savedCount int
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 10), nil
		},
		findEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			return &Enrollment{ID: "enr-1", UserID: userID, CourseID: courseID, CompletedLessons: 3}, nil
		},
		updateProgressFn: func(ctx context.Context, enrollmentID string, completedLessons int) error {
			savedCount = completedLessons
			return nil
		},
	}

	svc := NewLearningService(repo)
	enrollment, err := svc.CompleteLesson(context.Background(), "user-123", "course-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.CompletedLessons != 4 {
		t.Errorf("expected progress 4, got %d", enrollment.CompletedLessons)
	}
	if savedCount != 4 {
		t.Errorf("expected saved progress 4, got %d", savedCount)
	}
}

func TestCompleteLesson_CapsAtLessonCount(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 5), nil
		},
		findEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			return &Enrollment{ID: "enr-1", CompletedLessons: 5}, nil
		},
		updateProgressFn: func(ctx context.Context, enrollmentID string, completedLessons int) error {
			t.Error("expected no update past the lesson count")
			return nil
		},
	}

	svc := NewLearningService(repo)
	enrollment, err := svc.CompleteLesson(context.Background(), "user-123", "course-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.CompletedLessons != 5 {
		t.Errorf("expected progress to stay at 5, got %d", enrollment.CompletedLessons)
	}
}

func TestCompleteLesson_NotEnrolled(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			return publishedCourse(id, 10), nil
		},
	}

	svc := NewLearningService(repo)
	_, err := svc.CompleteLesson(context.Background(), "user-123", "course-1")
	assertKind(t, err, apperror.KindNotFound)
}

// --- Course Catalog Tests ---

func TestGetCourse_HidesUnpublished(t *testing.T) {
	repo := &mockCourseRepo{
		findCourseFn: func(ctx context.Context, id string) (*Course, error) {
			c := publishedCourse(id, 10)
			c.Published = false
			return c, nil
		},
	}

	svc := NewLearningService(repo)
	_, err := svc.GetCourse(context.Background(), "course-1")
	assertKind(t, err, apperror.KindNotFound)
}

func TestBrowseCourses_PublishedOnly(t *testing.T) {
	var gotPublishedOnly bool
	repo := &mockCourseRepo{
		listCoursesFn: func(ctx context.Context, publishedOnly bool) ([]Course, error) {
			gotPublishedOnly = publishedOnly
			return nil, nil
		},
	}

	svc := NewLearningService(repo)
	if _, err := svc.BrowseCourses(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotPublishedOnly {
		t.Error("expected learner browsing to request published courses only")
	}
}

func TestCreateCourse_Validation(t *testing.T) {
	svc := NewLearningService(&mockCourseRepo{})

	tests := []struct {
		name  string
		input CourseInput
	}{
		{"missing title", CourseInput{Level: "beginner", LessonCount: 5}},
		{"bad level", CourseInput{Title: "T", Level: "expert", LessonCount: 5}},
		{"zero lessons", CourseInput{Title: "T", Level: "beginner", LessonCount: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCourse(context.Background(), tt.input)
			assertKind(t, err, apperror.KindValidation)
		})
	}
}

func TestCreateCourse_Success(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewLearningService(repo)

	course, err := svc.CreateCourse(context.Background(), CourseInput{
		Title:       "Prakrit Reading Group",
		Level:       "advanced",
		LessonCount: 12,
		Published:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if course.ID == "" {
		t.Error("expected course ID to be generated")
	}
}

func TestEnrollmentDetailCompleted(t *testing.T) {
	done := &EnrollmentDetail{
		Enrollment:  Enrollment{CompletedLessons: 10},
		LessonCount: 10,
	}
	if !done.Completed() {
		t.Error("expected full progress to count as completed")
	}

	partial := &EnrollmentDetail{
		Enrollment:  Enrollment{CompletedLessons: 9},
		LessonCount: 10,
	}
	if partial.Completed() {
		t.Error("expected partial progress not to count as completed")
	}

	empty := &EnrollmentDetail{LessonCount: 0}
	if empty.Completed() {
		t.Error("expected a course with no lessons never to be completed")
	}
}
