package admin

import (
	"context"
	"log/slog"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// AdminService defines the business logic contract for account administration.
type AdminService interface {
	// ListAccounts returns a page of accounts with their profile and role.
	ListAccounts(ctx context.Context, page, perPage int) ([]auth.AccountSummary, int, error)

	// ChangeRole assigns a role to an account on behalf of actor. Only a
	// superadmin may grant or revoke the superadmin role.
	ChangeRole(ctx context.Context, actor *auth.Session, userID string, role auth.Role) error
}

// adminService implements AdminService on top of the auth plugin's
// repository and service. Administration has no tables of its own.
type adminService struct {
	users auth.UserRepository
	authz auth.AuthService
}

// NewAdminService creates a new admin service.
func NewAdminService(users auth.UserRepository, authz auth.AuthService) AdminService {
	return &adminService{users: users, authz: authz}
}

// ListAccounts returns a page of accounts. Credentials never leave the
// repository layer.
func (s *adminService) ListAccounts(ctx context.Context, page, perPage int) ([]auth.AccountSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}
	return s.users.ListUsers(ctx, (page-1)*perPage, perPage)
}

// ChangeRole assigns a role to an account. The superadmin role can only be
// touched by another superadmin; session destruction on role change is
// handled downstream.
func (s *adminService) ChangeRole(ctx context.Context, actor *auth.Session, userID string, role auth.Role) error {
	if actor == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if userID == "" {
		return apperror.NewBadRequest("user id is required")
	}
	if actor.UserID == userID {
		return apperror.NewConflict("you cannot change your own role")
	}

	touchesSuperadmin := role == auth.RoleSuperadmin
	if !touchesSuperadmin {
		stored, err := s.users.FindRole(ctx, userID)
		if err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		if auth.RoleFromString(stored) == auth.RoleSuperadmin {
			touchesSuperadmin = true
		}
	}
	if touchesSuperadmin && actor.Role != auth.RoleSuperadmin {
		return apperror.NewForbidden("only a superadmin can grant or revoke superadmin")
	}

	if err := s.authz.SetRole(ctx, userID, role); err != nil {
		return err
	}

	slog.Info("role changed by admin",
		slog.String("actor_id", actor.UserID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return nil
}
