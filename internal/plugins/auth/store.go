package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jambushrusti/platform/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionEventChannel is the Redis pub/sub channel session-change events
// are published on. The session Manager on every process subscribes to it.
const sessionEventChannel = "auth:session-events"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// Session event kinds.
const (
	eventSessionCreated   = "created"
	eventSessionDestroyed = "destroyed"
	eventUserInvalidated  = "user_invalidated"
)

// sessionEvent is the wire format for session-change notifications.
type sessionEvent struct {
	Kind   string `json:"kind"`
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// SessionStore is the single source of truth for active sessions. Sessions
// live in Redis under an opaque random token with a TTL; every mutation
// publishes a change event so per-process caches can invalidate.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore creates a session store with the given TTL.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create generates a random session token and stores the session data in
// Redis with the configured TTL. Returns the token for the cookie.
func (s *SessionStore) Create(ctx context.Context, profile *UserProfile) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		UserID:      profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		Role:        profile.Role,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	s.publish(ctx, sessionEvent{Kind: eventSessionCreated, Token: token, UserID: profile.ID})

	return token, nil
}

// Get looks up a session token and returns the session data if it exists
// and hasn't expired. Returns apperror.Unauthorized on a miss.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	key := sessionKeyPrefix + token

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// Destroy removes a session, effectively logging the user out. Destroying a
// session that no longer exists is a no-op, which makes logout idempotent.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	s.publish(ctx, sessionEvent{Kind: eventSessionDestroyed, Token: token})

	return nil
}

// DestroyAllForUser removes every active session belonging to a user.
// Used when an account's role changes or it is disabled, so stale
// privileges die immediately. Returns the number of sessions destroyed.
func (s *SessionStore) DestroyAllForUser(ctx context.Context, userID string) (int, error) {
	var destroyed int

	iter := s.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue // Expired between SCAN and GET.
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}

		if session.UserID != userID {
			continue
		}

		if err := s.rdb.Del(ctx, key).Err(); err == nil {
			destroyed++
		}
	}
	if err := iter.Err(); err != nil {
		return destroyed, apperror.NewInternal(fmt.Errorf("scanning sessions: %w", err))
	}

	s.publish(ctx, sessionEvent{Kind: eventUserInvalidated, UserID: userID})

	return destroyed, nil
}

// InvalidateUser publishes a user-wide invalidation event without touching
// stored sessions. Used after a role change when sessions should stay alive
// but caches must re-resolve the profile.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) {
	s.publish(ctx, sessionEvent{Kind: eventUserInvalidated, UserID: userID})
}

// publish sends a session-change event. Publish failures are logged, not
// returned: the store's own state is already consistent, and subscribers
// fall back to TTL expiry.
func (s *SessionStore) publish(ctx context.Context, ev sessionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, sessionEventChannel, data).Err(); err != nil {
		slog.Warn("failed to publish session event",
			slog.String("kind", ev.Kind),
			slog.Any("error", err),
		)
	}
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
