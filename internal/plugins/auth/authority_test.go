package auth

import "testing"

func TestHasRole_NilSession(t *testing.T) {
	// An unauthenticated visitor holds no role, not even 'user'.
	if HasRole(nil, RoleUser) {
		t.Error("expected nil session to have no role")
	}
	if HasRole(nil) {
		t.Error("expected nil session to match nothing")
	}
}

func TestHasRole_ExactMatchOnly(t *testing.T) {
	// Roles are flat labels: superadmin does not implicitly hold
	// librarian, and librarian does not hold scholar.
	s := &Session{UserID: "u1", Role: RoleLibrarian}

	if !HasRole(s, RoleLibrarian) {
		t.Error("expected librarian to match librarian")
	}
	if HasRole(s, RoleScholar) {
		t.Error("expected librarian not to match scholar")
	}
	if HasRole(s, RoleAdmin, RoleSuperadmin) {
		t.Error("expected librarian not to match staff roles")
	}
}

func TestHasRole_MultipleAllowed(t *testing.T) {
	s := &Session{UserID: "u1", Role: RoleAdmin}
	if !HasRole(s, RoleAdmin, RoleSuperadmin) {
		t.Error("expected admin to match an admin-or-superadmin check")
	}
}

func TestHasRole_EmptyList(t *testing.T) {
	s := &Session{UserID: "u1", Role: RoleUser}
	if HasRole(s) {
		t.Error("expected no match against an empty role list")
	}
}

func TestHasProfileRole(t *testing.T) {
	if HasProfileRole(nil, RoleUser) {
		t.Error("expected nil profile to have no role")
	}
	p := &UserProfile{ID: "u1", Role: RoleScholar}
	if !HasProfileRole(p, RoleScholar) {
		t.Error("expected scholar to match scholar")
	}
	if HasProfileRole(p, RoleAdmin) {
		t.Error("expected scholar not to match admin")
	}
}

func TestRoleFromString_FailsOpenToUser(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"superadmin", RoleSuperadmin},
		{"ADMIN", RoleAdmin},
		{"  librarian  ", RoleLibrarian},
		{"scholar", RoleScholar},
		{"user", RoleUser},
		{"", RoleUser},
		{"moderator", RoleUser},
		{"garbage", RoleUser},
	}
	for _, tt := range tests {
		if got := RoleFromString(tt.in); got != tt.want {
			t.Errorf("RoleFromString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLandingPath(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleSuperadmin, "/admin"},
		{RoleAdmin, "/admin"},
		{RoleLibrarian, "/lms"},
		{RoleScholar, "/research"},
		{RoleUser, "/"},
		{Role("unknown"), "/"},
	}
	for _, tt := range tests {
		if got := tt.role.LandingPath(); got != tt.want {
			t.Errorf("LandingPath(%s) = %s, want %s", tt.role, got, tt.want)
		}
	}
}
