package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jambushrusti/platform/internal/apperror"
)

// IdentityResolver maps a raw account identity (user id + email) to a full
// UserProfile by consulting the role-assignment and profile records.
type IdentityResolver interface {
	ResolveProfile(ctx context.Context, userID, email string) (*UserProfile, error)
}

// identityResolver implements IdentityResolver on top of UserRepository.
type identityResolver struct {
	repo UserRepository
}

// NewIdentityResolver creates a resolver backed by the given repository.
func NewIdentityResolver(repo UserRepository) IdentityResolver {
	return &identityResolver{repo: repo}
}

// ResolveProfile looks up the user's role and display record.
//
// Missing data is never an error here:
//   - no role row, or a role lookup failure, resolves to RoleUser (fail-open
//     to the least-privileged role -- a deliberate policy, see DESIGN.md)
//   - no profile row derives the display name from the email's local part
//
// Only a transport-level failure on the profile query returns an error,
// which callers surface as an internal error.
func (r *identityResolver) ResolveProfile(ctx context.Context, userID, email string) (*UserProfile, error) {
	if userID == "" {
		return nil, apperror.NewBadRequest("user ID is required")
	}

	profile := &UserProfile{
		ID:    userID,
		Email: email,
		Role:  RoleUser,
	}

	// Role lookup. A missing row means the default role; a failed lookup is
	// logged and also means the default role -- the user stays signed in
	// with minimum privileges instead of being locked out.
	roleStr, err := r.repo.FindRole(ctx, userID)
	switch {
	case err == nil:
		profile.Role = RoleFromString(roleStr)
	case apperror.IsKind(err, apperror.KindNotFound):
		// No assignment yet -- default stands.
	default:
		slog.Warn("role lookup failed, defaulting to least-privileged role",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	// Profile lookup. Missing is fine; anything else is a real failure.
	p, err := r.repo.FindProfile(ctx, userID)
	switch {
	case err == nil:
		profile.DisplayName = p.DisplayName
		profile.AvatarURL = p.AvatarURL
	case apperror.IsKind(err, apperror.KindNotFound):
		profile.DisplayName = displayNameFromEmail(email)
	default:
		return nil, apperror.NewInternal(fmt.Errorf("resolving profile: %w", err))
	}

	if profile.DisplayName == "" {
		profile.DisplayName = displayNameFromEmail(email)
	}

	return profile, nil
}

// displayNameFromEmail derives a fallback display name from the text before
// the @ sign. An empty email yields "Member" rather than an empty name.
func displayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		if email != "" {
			return email
		}
		return "Member"
	}
	return local
}
