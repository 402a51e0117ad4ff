package auth

// HasRole reports whether the session's user holds any of the given roles.
// A nil session (unauthenticated) never has a role. Pure function: no I/O,
// no side effects, safe to call anywhere including hot request paths.
func HasRole(s *Session, roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// HasProfileRole is HasRole for a resolved UserProfile instead of a session.
func HasProfileRole(p *UserProfile, roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
