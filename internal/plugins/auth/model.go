// Package auth handles user authentication, session management, and
// role-based access control for the platform. It provides signup, login,
// logout, session validation, and the route guards every protected area
// (admin, library, learning, research, tickets) is built on.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"strings"
	"time"
)

// --- Roles ---

// Role is one of five fixed privilege tiers gating access to application
// areas. Roles are flat labels, not a strict hierarchy: a librarian is not
// "above" a scholar. Guards list the roles they accept explicitly.
type Role string

const (
	// RoleSuperadmin has full control, including managing other admins.
	RoleSuperadmin Role = "superadmin"

	// RoleAdmin manages users, content, and support tickets.
	RoleAdmin Role = "admin"

	// RoleLibrarian manages the physical book catalog and circulation.
	RoleLibrarian Role = "librarian"

	// RoleScholar contributes research articles in the collaboration portal.
	RoleScholar Role = "scholar"

	// RoleUser is the least-privileged default: browse, enroll in courses,
	// borrow books, open tickets.
	RoleUser Role = "user"
)

// RoleFromString converts a stored role string to a Role. Unknown or empty
// values resolve to RoleUser: the platform fails open to the least-privileged
// role rather than locking an account out over a bad row. This is a
// deliberate policy, not a fallback of convenience.
func RoleFromString(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSuperadmin:
		return RoleSuperadmin
	case RoleAdmin:
		return RoleAdmin
	case RoleLibrarian:
		return RoleLibrarian
	case RoleScholar:
		return RoleScholar
	default:
		return RoleUser
	}
}

// IsValid returns true if this is one of the five known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleLibrarian, RoleScholar, RoleUser:
		return true
	}
	return false
}

// LandingPath returns the area a user of this role lands on after login,
// and where they are sent when a guard turns them away from someone
// else's area.
func (r Role) LandingPath() string {
	switch r {
	case RoleSuperadmin, RoleAdmin:
		return "/admin"
	case RoleLibrarian:
		return "/lms"
	case RoleScholar:
		return "/research"
	default:
		return "/"
	}
}

// DisplayName returns a human-readable label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleSuperadmin:
		return "Super Admin"
	case RoleAdmin:
		return "Admin"
	case RoleLibrarian:
		return "Librarian"
	case RoleScholar:
		return "Scholar"
	default:
		return "Member"
	}
}

// --- Domain models ---

// User represents a registered account. Database scanning uses this struct
// directly. The password hash never leaves the auth package.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Profile is the display record stored separately from the account row.
// A user may exist without a profile; the resolver derives a display name
// from the email in that case.
type Profile struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// UserProfile is the resolved identity handed to the rest of the
// application: account identity plus display data plus exactly one role.
type UserProfile struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Role        Role    `json:"role"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Session represents an authenticated user session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
// The role here is a snapshot taken at resolution time; the session manager
// re-resolves it when a role-change event invalidates the cache.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// SignupRequest holds the data submitted by the signup form.
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	FullName string `json:"full_name" form:"full_name"`
	Password string `json:"password" form:"password"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// --- Service input/result types ---

// SignupInput is the validated input for creating a new account.
type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the outcome of a login attempt. Expected failures (unknown
// email, wrong password, backend unreachable) set Success=false with a
// client-safe message -- callers never need error handling for them.
type LoginResult struct {
	Success    bool         `json:"success"`
	RedirectTo string       `json:"redirect_to,omitempty"`
	User       *UserProfile `json:"user,omitempty"`
	Error      string       `json:"error,omitempty"`

	// token is the new session token. Only the HTTP handler reads it,
	// to set the cookie; it is never serialized.
	token string
}

// Token returns the session token created by a successful login.
func (r LoginResult) Token() string { return r.token }

// SignupResult is the outcome of a signup attempt, same contract as
// LoginResult: failures are values, not errors.
type SignupResult struct {
	Success bool         `json:"success"`
	User    *UserProfile `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}
