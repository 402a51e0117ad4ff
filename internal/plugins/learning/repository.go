package learning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/jambushrusti/platform/internal/apperror"
)

// mysqlErrDuplicateEntry is the MySQL/MariaDB unique-key violation number.
const mysqlErrDuplicateEntry = 1062

// CourseRepository defines the data access contract for courses and
// enrollments.
type CourseRepository interface {
	ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error)
	FindCourse(ctx context.Context, id string) (*Course, error)
	CreateCourse(ctx context.Context, course *Course) error
	UpdateCourse(ctx context.Context, course *Course) error

	// Enroll returns Kind=duplicate_enrollment when the user is already
	// enrolled. The kind is decided here, from the database error number,
	// so no caller ever inspects message text.
	Enroll(ctx context.Context, enrollment *Enrollment) error
	FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error)
	ListEnrollmentsForUser(ctx context.Context, userID string) ([]EnrollmentDetail, error)
	UpdateProgress(ctx context.Context, enrollmentID string, completedLessons int) error
}

// courseRepository implements CourseRepository with hand-written MariaDB
// queries.
type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sql.DB) CourseRepository {
	return &courseRepository{db: db}
}

// ListCourses returns all courses, or only published ones for learners.
func (r *courseRepository) ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error) {
	query := `SELECT id, title, description, level, lesson_count, published, created_at
	          FROM courses`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.Level,
			&c.LessonCount, &c.Published, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning course row: %w", err)
		}
		courses = append(courses, c)
	}

	return courses, rows.Err()
}

// FindCourse retrieves a course by ID.
// Returns apperror.NotFound if no course exists with this ID.
func (r *courseRepository) FindCourse(ctx context.Context, id string) (*Course, error) {
	query := `SELECT id, title, description, level, lesson_count, published, created_at
	          FROM courses WHERE id = ?`

	c := &Course{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Title, &c.Description, &c.Level,
		&c.LessonCount, &c.Published, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying course: %w", err)
	}

	return c, nil
}

// CreateCourse inserts a new course.
func (r *courseRepository) CreateCourse(ctx context.Context, course *Course) error {
	query := `INSERT INTO courses (id, title, description, level, lesson_count, published, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		course.ID, course.Title, course.Description, course.Level,
		course.LessonCount, course.Published, course.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

// UpdateCourse updates a course's fields.
func (r *courseRepository) UpdateCourse(ctx context.Context, course *Course) error {
	query := `UPDATE courses
	          SET title = ?, description = ?, level = ?, lesson_count = ?, published = ?
	          WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		course.Title, course.Description, course.Level,
		course.LessonCount, course.Published, course.ID,
	)
	if err != nil {
		return fmt.Errorf("updating course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("course not found")
	}

	return nil
}

// Enroll inserts the enrollment row. The unique key on (user_id, course_id)
// turns a re-enrollment into error 1062, translated to the structured
// duplicate_enrollment kind right here.
func (r *courseRepository) Enroll(ctx context.Context, enrollment *Enrollment) error {
	query := `INSERT INTO enrollments (id, course_id, user_id, completed_lessons, enrolled_at)
	          VALUES (?, ?, ?, 0, ?)`

	_, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.CourseID, enrollment.UserID, enrollment.EnrolledAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return apperror.NewDuplicateEnrollment("you are already enrolled in this course")
		}
		return fmt.Errorf("inserting enrollment: %w", err)
	}

	return nil
}

// FindEnrollment retrieves a member's enrollment in a course.
// Returns apperror.NotFound if the user is not enrolled.
func (r *courseRepository) FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	query := `SELECT id, course_id, user_id, completed_lessons, enrolled_at
	          FROM enrollments WHERE user_id = ? AND course_id = ?`

	e := &Enrollment{}
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&e.ID, &e.CourseID, &e.UserID, &e.CompletedLessons, &e.EnrolledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("enrollment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying enrollment: %w", err)
	}

	return e, nil
}

// ListEnrollmentsForUser returns a member's enrollments joined with their
// courses, newest first.
func (r *courseRepository) ListEnrollmentsForUser(ctx context.Context, userID string) ([]EnrollmentDetail, error) {
	query := `SELECT e.id, e.course_id, e.user_id, e.completed_lessons, e.enrolled_at,
	                 c.title, c.lesson_count
	          FROM enrollments e JOIN courses c ON c.id = e.course_id
	          WHERE e.user_id = ?
	          ORDER BY e.enrolled_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []EnrollmentDetail
	for rows.Next() {
		var d EnrollmentDetail
		if err := rows.Scan(
			&d.ID, &d.CourseID, &d.UserID, &d.CompletedLessons, &d.EnrolledAt,
			&d.CourseTitle, &d.LessonCount,
		); err != nil {
			return nil, fmt.Errorf("scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, d)
	}

	return enrollments, rows.Err()
}

// UpdateProgress sets the completed lesson count for an enrollment.
func (r *courseRepository) UpdateProgress(ctx context.Context, enrollmentID string, completedLessons int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE enrollments SET completed_lessons = ? WHERE id = ?`,
		completedLessons, enrollmentID,
	)
	if err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NewNotFound("enrollment not found")
	}

	return nil
}
