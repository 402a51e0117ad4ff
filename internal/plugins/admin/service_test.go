package admin

import (
	"context"
	"testing"
	"time"

	"github.com/jambushrusti/platform/internal/apperror"
	"github.com/jambushrusti/platform/internal/plugins/auth"
)

// mockUserRepo implements auth.UserRepository. Only the methods the admin
// service touches carry function fields.
type mockUserRepo struct {
	findRoleFn  func(ctx context.Context, userID string) (string, error)
	listUsersFn func(ctx context.Context, offset, limit int) ([]auth.AccountSummary, int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *auth.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return &auth.User{ID: id}, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error { return nil }

func (m *mockUserRepo) FindProfile(ctx context.Context, userID string) (*auth.Profile, error) {
	return nil, apperror.NewNotFound("profile not found")
}

func (m *mockUserRepo) UpsertProfile(ctx context.Context, profile *auth.Profile) error { return nil }

func (m *mockUserRepo) FindRole(ctx context.Context, userID string) (string, error) {
	if m.findRoleFn != nil {
		return m.findRoleFn(ctx, userID)
	}
	return "", apperror.NewNotFound("no role assignment")
}

func (m *mockUserRepo) AssignRole(ctx context.Context, userID string, role auth.Role) error {
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, userID string, role auth.Role) error {
	return nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role auth.Role) (int, error) {
	return 0, nil
}

func (m *mockUserRepo) ListUsers(ctx context.Context, offset, limit int) ([]auth.AccountSummary, int, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// mockAuthService implements auth.AuthService, recording SetRole calls.
type mockAuthService struct {
	setRoleFn func(ctx context.Context, userID string, role auth.Role) error
}

func (m *mockAuthService) Signup(ctx context.Context, input auth.SignupInput) auth.SignupResult {
	return auth.SignupResult{Success: true}
}

func (m *mockAuthService) Login(ctx context.Context, input auth.LoginInput) auth.LoginResult {
	return auth.LoginResult{Success: true}
}

func (m *mockAuthService) Logout(ctx context.Context, token string) {}

func (m *mockAuthService) EnsureRole(ctx context.Context, userID string, target auth.Role) error {
	return nil
}

func (m *mockAuthService) SetRole(ctx context.Context, userID string, role auth.Role) error {
	if m.setRoleFn != nil {
		return m.setRoleFn(ctx, userID, role)
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

func adminSession() *auth.Session {
	return &auth.Session{UserID: "admin-1", Role: auth.RoleAdmin, CreatedAt: time.Now()}
}

func superadminSession() *auth.Session {
	return &auth.Session{UserID: "root-1", Role: auth.RoleSuperadmin, CreatedAt: time.Now()}
}

func TestChangeRole_AdminAssignsLibrarian(t *testing.T) {
	var gotUser string
	var gotRole auth.Role
	authz := &mockAuthService{
		setRoleFn: func(ctx context.Context, userID string, role auth.Role) error {
			gotUser = userID
			gotRole = role
			return nil
		},
	}

	svc := NewAdminService(&mockUserRepo{}, authz)
	if err := svc.ChangeRole(context.Background(), adminSession(), "user-7", auth.RoleLibrarian); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user-7" || gotRole != auth.RoleLibrarian {
		t.Errorf("expected user-7 to become librarian, got %s/%s", gotUser, gotRole)
	}
}

func TestChangeRole_AdminCannotGrantSuperadmin(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, &mockAuthService{})
	err := svc.ChangeRole(context.Background(), adminSession(), "user-7", auth.RoleSuperadmin)
	assertKind(t, err, apperror.KindForbidden)
}

func TestChangeRole_AdminCannotDemoteSuperadmin(t *testing.T) {
	repo := &mockUserRepo{
		findRoleFn: func(ctx context.Context, userID string) (string, error) {
			return string(auth.RoleSuperadmin), nil
		},
	}

	svc := NewAdminService(repo, &mockAuthService{})
	err := svc.ChangeRole(context.Background(), adminSession(), "root-2", auth.RoleUser)
	assertKind(t, err, apperror.KindForbidden)
}

func TestChangeRole_SuperadminGrantsSuperadmin(t *testing.T) {
	called := false
	authz := &mockAuthService{
		setRoleFn: func(ctx context.Context, userID string, role auth.Role) error {
			called = true
			return nil
		},
	}

	svc := NewAdminService(&mockUserRepo{}, authz)
	if err := svc.ChangeRole(context.Background(), superadminSession(), "user-7", auth.RoleSuperadmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected the role change to reach the auth service")
	}
}

func TestChangeRole_CannotChangeOwnRole(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, &mockAuthService{})
	err := svc.ChangeRole(context.Background(), adminSession(), "admin-1", auth.RoleUser)
	assertKind(t, err, apperror.KindConflict)
}

func TestChangeRole_MissingRoleRowTreatedAsDefault(t *testing.T) {
	// A user with no role assignment row is a plain member; an admin may
	// still change their role.
	called := false
	authz := &mockAuthService{
		setRoleFn: func(ctx context.Context, userID string, role auth.Role) error {
			called = true
			return nil
		},
	}

	svc := NewAdminService(&mockUserRepo{}, authz)
	if err := svc.ChangeRole(context.Background(), adminSession(), "user-7", auth.RoleScholar); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected the role change to reach the auth service")
	}
}

func TestChangeRole_NoActor(t *testing.T) {
	svc := NewAdminService(&mockUserRepo{}, &mockAuthService{})
	err := svc.ChangeRole(context.Background(), nil, "user-7", auth.RoleUser)
	assertKind(t, err, apperror.KindUnauthorized)
}

func TestListAccounts_ClampsPaging(t *testing.T) {
	var gotOffset, gotLimit int
	repo := &mockUserRepo{
		listUsersFn: func(ctx context.Context, offset, limit int) ([]auth.AccountSummary, int, error) {
			gotOffset = offset
			gotLimit = limit
			return []auth.AccountSummary{}, 0, nil
		},
	}

	svc := NewAdminService(repo, &mockAuthService{})
	if _, _, err := svc.ListAccounts(context.Background(), -3, 5000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOffset != 0 {
		t.Errorf("expected offset 0, got %d", gotOffset)
	}
	if gotLimit != 25 {
		t.Errorf("expected default limit 25, got %d", gotLimit)
	}
}
