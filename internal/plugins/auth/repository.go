package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/jambushrusti/platform/internal/apperror"
)

// mysqlErrDuplicateEntry is the MySQL/MariaDB error number for a
// unique-key violation. Repositories translate it into a structured
// apperror kind so no caller ever matches on message text.
const mysqlErrDuplicateEntry = 1062

// UserRepository defines the data access contract for accounts, profiles,
// and role assignments. All SQL lives in the concrete implementation --
// no SQL leaks out.
type UserRepository interface {
	// Accounts.
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error

	// Profiles (display record, separate from the account row).
	FindProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error

	// Role assignments: exactly one row per user. FindRole returns
	// apperror.NotFound when no row exists -- the resolver maps that to
	// the default role, never this layer.
	FindRole(ctx context.Context, userID string) (string, error)
	AssignRole(ctx context.Context, userID string, role Role) error
	UpdateRole(ctx context.Context, userID string, role Role) error
	CountByRole(ctx context.Context, role Role) (int, error)

	// Admin operations.
	ListUsers(ctx context.Context, offset, limit int) ([]AccountSummary, int, error)
}

// AccountSummary is the admin list view of an account: identity, profile,
// and role joined together, credentials deliberately excluded.
type AccountSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        Role       `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new account row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, password_hash, created_at)
	          VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("an account with this email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves an account by its UUID.
// Returns apperror.NotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, email, password_hash, created_at, last_login_at
	          FROM users WHERE id = ?`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves an account by email address.
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, password_hash, created_at, last_login_at
	          FROM users WHERE email = ?`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return user, nil
}

// EmailExists returns true if an account with the given email already exists.
// Used during signup to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// --- Profiles ---

// FindProfile retrieves the display record for a user.
// Returns apperror.NotFound if no profile row exists.
func (r *userRepository) FindProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `SELECT user_id, display_name, avatar_url FROM profiles WHERE user_id = ?`

	p := &Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.AvatarURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return p, nil
}

// UpsertProfile creates or updates the display record for a user.
func (r *userRepository) UpsertProfile(ctx context.Context, profile *Profile) error {
	query := `INSERT INTO profiles (user_id, display_name, avatar_url)
	          VALUES (?, ?, ?)
	          ON DUPLICATE KEY UPDATE display_name = VALUES(display_name),
	                                  avatar_url = VALUES(avatar_url)`

	_, err := r.db.ExecContext(ctx, query, profile.UserID, profile.DisplayName, profile.AvatarURL)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}

// --- Role assignments ---

// FindRole retrieves the role string assigned to a user.
// Returns apperror.NotFound if no role row exists.
func (r *userRepository) FindRole(ctx context.Context, userID string) (string, error) {
	query := `SELECT role FROM role_assignments WHERE user_id = ?`

	var role string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperror.NewNotFound("role assignment not found")
	}
	if err != nil {
		return "", fmt.Errorf("querying role assignment: %w", err)
	}

	return role, nil
}

// AssignRole inserts the single role row for a user. The unique key on
// user_id enforces the exactly-one-role invariant at the schema level.
func (r *userRepository) AssignRole(ctx context.Context, userID string, role Role) error {
	query := `INSERT INTO role_assignments (user_id, role) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, userID, string(role))
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("user already has a role assignment")
		}
		return fmt.Errorf("inserting role assignment: %w", err)
	}

	return nil
}

// UpdateRole changes a user's role. Inserts the row if it is missing, so a
// role change always leaves the user with exactly one assignment.
func (r *userRepository) UpdateRole(ctx context.Context, userID string, role Role) error {
	query := `INSERT INTO role_assignments (user_id, role) VALUES (?, ?)
	          ON DUPLICATE KEY UPDATE role = VALUES(role)`

	_, err := r.db.ExecContext(ctx, query, userID, string(role))
	if err != nil {
		return fmt.Errorf("updating role assignment: %w", err)
	}

	return nil
}

// CountByRole returns the number of users holding the given role.
// Used to prevent demoting the last superadmin.
func (r *userRepository) CountByRole(ctx context.Context, role Role) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM role_assignments WHERE role = ?`, string(role),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting role assignments: %w", err)
	}
	return count, nil
}

// --- Admin operations ---

// ListUsers returns a paginated list of accounts joined with their profile
// and role, ordered by creation date. Also returns the total count for
// pagination. Password hashes are deliberately excluded from this query.
func (r *userRepository) ListUsers(ctx context.Context, offset, limit int) ([]AccountSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query := `SELECT u.id, u.email,
	                 COALESCE(p.display_name, ''), COALESCE(ra.role, 'user'),
	                 u.created_at, u.last_login_at, p.avatar_url
	          FROM users u
	          LEFT JOIN profiles p ON p.user_id = u.id
	          LEFT JOIN role_assignments ra ON ra.user_id = u.id
	          ORDER BY u.created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []AccountSummary
	for rows.Next() {
		var a AccountSummary
		var roleStr string
		if err := rows.Scan(
			&a.ID, &a.Email, &a.DisplayName, &roleStr,
			&a.CreatedAt, &a.LastLoginAt, &a.AvatarURL,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning user row: %w", err)
		}
		a.Role = RoleFromString(roleStr)
		users = append(users, a)
	}

	return users, total, rows.Err()
}

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation.
// This is the only place error numbers are inspected; everything above this
// layer branches on apperror kinds.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}
