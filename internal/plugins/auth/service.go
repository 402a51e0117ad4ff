package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/jambushrusti/platform/internal/apperror"
)

// argon2id parameters tuned for a self-hosted application running on
// modest hardware (2-4 CPU cores, 2-4 GB RAM). These follow OWASP
// recommendations for argon2id: memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AuthService defines the business logic contract for authentication.
// Handlers and other plugins call these methods -- they never touch the
// repository or the session store directly.
type AuthService interface {
	// Signup creates an account and assigns the default role. Failures are
	// returned as a result value, never as an error the caller must branch on.
	Signup(ctx context.Context, input SignupInput) SignupResult

	// Login authenticates by email and password. On success the result
	// carries the session token and the role-specific landing route.
	Login(ctx context.Context, input LoginInput) LoginResult

	// Logout destroys the session for the given token. Idempotent: a
	// missing, expired, or already-destroyed session is a no-op, and the
	// caller always ends up signed out.
	Logout(ctx context.Context, token string)

	// EnsureRole upgrades a default-role account to the target role. A
	// no-op when the account already holds any non-default role -- it
	// never downgrades. Used by onboarding flows (e.g. joining the
	// research portal as a scholar).
	EnsureRole(ctx context.Context, userID string, target Role) error

	// SetRole changes a user's role outright and destroys their active
	// sessions so stale privileges die immediately. Refuses to demote the
	// last superadmin.
	SetRole(ctx context.Context, userID string, role Role) error
}

// authService implements AuthService with argon2id hashing and the
// Redis-backed session store.
type authService struct {
	repo     UserRepository
	resolver IdentityResolver
	store    *SessionStore
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, resolver IdentityResolver, store *SessionStore) AuthService {
	return &authService{
		repo:     repo,
		resolver: resolver,
		store:    store,
	}
}

// Signup creates a new account. It validates uniqueness, hashes the password
// with argon2id, persists the user and profile, and -- critically -- inserts
// exactly one role-assignment row with the default role. The database has no
// default-role trigger; this service owns that invariant.
func (s *authService) Signup(ctx context.Context, input SignupInput) SignupResult {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		slog.Error("signup: email check failed", slog.Any("error", err))
		return SignupResult{Error: "could not create the account, please try again"}
	}
	if exists {
		return SignupResult{Error: "an account with this email already exists"}
	}

	// Hash the password with argon2id (memory-hard, GPU-resistant).
	hash, err := hashPassword(input.Password)
	if err != nil {
		slog.Error("signup: password hashing failed", slog.Any("error", err))
		return SignupResult{Error: "could not create the account, please try again"}
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if apperror.IsKind(err, apperror.KindConflict) {
			return SignupResult{Error: "an account with this email already exists"}
		}
		slog.Error("signup: creating user failed", slog.Any("error", err))
		return SignupResult{Error: "could not create the account, please try again"}
	}

	displayName := strings.TrimSpace(input.FullName)
	if displayName == "" {
		displayName = displayNameFromEmail(email)
	}
	if err := s.repo.UpsertProfile(ctx, &Profile{UserID: user.ID, DisplayName: displayName}); err != nil {
		// Non-fatal: the resolver derives a display name from the email.
		slog.Warn("signup: storing profile failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	// Every new account gets exactly one role row, and it is 'user'.
	if err := s.repo.AssignRole(ctx, user.ID, RoleUser); err != nil && !apperror.IsKind(err, apperror.KindConflict) {
		slog.Error("signup: assigning default role failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return SignupResult{Error: "could not create the account, please try again"}
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return SignupResult{
		Success: true,
		User: &UserProfile{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: displayName,
			Role:        RoleUser,
		},
	}
}

// Login authenticates a user by email and password. On success it resolves
// the full profile, creates a session, and computes the role-specific
// landing route. Logging in while already holding a session simply issues a
// new one (last-write-wins); the old token ages out via TTL.
func (s *authService) Login(ctx context.Context, input LoginInput) LoginResult {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			// Don't reveal whether the email exists -- use generic message.
			return LoginResult{Error: apperror.NewInvalidCredentials().Message}
		}
		slog.Error("login: finding user failed", slog.Any("error", err))
		return LoginResult{Error: "could not sign in, please try again"}
	}

	// Verify the password against the stored argon2id hash.
	if !verifyPassword(input.Password, user.PasswordHash) {
		return LoginResult{Error: apperror.NewInvalidCredentials().Message}
	}

	// Resolve the profile before returning so the landing route reflects
	// the user's actual role, not a guess.
	profile, err := s.resolver.ResolveProfile(ctx, user.ID, user.Email)
	if err != nil {
		slog.Error("login: resolving profile failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return LoginResult{Error: "could not sign in, please try again"}
	}

	token, err := s.store.Create(ctx, profile)
	if err != nil {
		slog.Error("login: creating session failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return LoginResult{Error: "could not sign in, please try again"}
	}

	// Update the user's last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(profile.Role)),
	)

	return LoginResult{
		Success:    true,
		RedirectTo: profile.Role.LandingPath(),
		User:       profile,
		token:      token,
	}
}

// Logout destroys the session. It never fails from the caller's point of
// view: store errors are logged and the caller proceeds to clear the cookie
// regardless, so the UI can never get stuck looking authenticated.
func (s *authService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.store.Destroy(ctx, token); err != nil {
		slog.Warn("logout: destroying session failed", slog.Any("error", err))
	}
}

// EnsureRole upgrades a default-role account to the target role.
func (s *authService) EnsureRole(ctx context.Context, userID string, target Role) error {
	if userID == "" {
		return apperror.NewBadRequest("user ID is required")
	}
	if !target.IsValid() || target == RoleUser {
		return apperror.NewBadRequest("invalid target role")
	}

	current := RoleUser
	roleStr, err := s.repo.FindRole(ctx, userID)
	switch {
	case err == nil:
		current = RoleFromString(roleStr)
	case apperror.IsKind(err, apperror.KindNotFound):
		// No row yet -- treat as default and write the target below.
	default:
		return apperror.NewInternal(fmt.Errorf("looking up role: %w", err))
	}

	// Never touch an account that already holds a real role.
	if current != RoleUser {
		return nil
	}

	if err := s.repo.UpdateRole(ctx, userID, target); err != nil {
		return apperror.NewInternal(fmt.Errorf("upgrading role: %w", err))
	}

	// Sessions stay alive; caches must re-resolve so the new role shows up
	// without a fresh login.
	s.store.InvalidateUser(ctx, userID)

	slog.Info("role upgraded",
		slog.String("user_id", userID),
		slog.String("role", string(target)),
	)

	return nil
}

// SetRole changes a user's role and kills their sessions.
func (s *authService) SetRole(ctx context.Context, userID string, role Role) error {
	if userID == "" {
		return apperror.NewBadRequest("user ID is required")
	}
	if !role.IsValid() {
		return apperror.NewBadRequest("invalid role")
	}

	// Verify the account exists.
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}

	currentStr, err := s.repo.FindRole(ctx, userID)
	current := RoleUser
	if err == nil {
		current = RoleFromString(currentStr)
	} else if !apperror.IsKind(err, apperror.KindNotFound) {
		return apperror.NewInternal(fmt.Errorf("looking up role: %w", err))
	}

	if current == role {
		return nil
	}

	// Keep at least one superadmin at all times.
	if current == RoleSuperadmin {
		count, err := s.repo.CountByRole(ctx, RoleSuperadmin)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("counting superadmins: %w", err))
		}
		if count <= 1 {
			return apperror.NewConflict("cannot demote the last superadmin")
		}
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating role: %w", err))
	}

	// Destroy active sessions so the old privileges die immediately.
	count, err := s.store.DestroyAllForUser(ctx, userID)
	if err != nil {
		slog.Warn("failed to destroy sessions after role change",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	} else if count > 0 {
		slog.Info("destroyed sessions after role change",
			slog.String("user_id", userID),
			slog.Int("session_count", count),
		)
	}

	return nil
}

// --- Password hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
