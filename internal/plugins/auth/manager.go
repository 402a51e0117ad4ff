package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheEntryTTL caps how long a resolved profile may be served from the
// per-process cache before being re-resolved. Invalidation events normally
// evict entries immediately; the TTL bounds staleness if an event is missed
// (e.g., the subscription dropped and reconnected).
const cacheEntryTTL = time.Minute

// subscribeTimeout bounds how long startup waits for the event subscription
// to be confirmed. If Redis is unreachable the manager starts in degraded
// (pass-through) mode instead of blocking the process.
const subscribeTimeout = 5 * time.Second

// Manager is the process-wide session authority the route guards consult.
// It validates tokens against the SessionStore and resolves the current
// profile (role included) via the IdentityResolver, caching results per
// token so the common case costs one map read.
//
// Consistency model: the manager subscribes to session-change events.
// Destroy and role-change events evict cache entries; the next lookup
// re-resolves from the store and database. Each token carries a
// monotonically increasing version -- a resolve that completes after its
// token was invalidated is discarded rather than written back, so a stale
// profile can never overwrite a fresher one.
type Manager struct {
	store    *SessionStore
	resolver IdentityResolver
	rdb      *redis.Client

	mu       sync.RWMutex
	cache    map[string]*cacheEntry
	versions map[string]*versionEntry
	degraded bool

	pubsub *redis.PubSub
	events chan sessionEvent
	done   chan struct{}
	wg     sync.WaitGroup
}

// cacheEntry is a resolved session plus when it was stored.
type cacheEntry struct {
	session  *Session
	storedAt time.Time
}

// versionEntry is a per-token invalidation counter. touchedAt lets the
// janitor drop tombstones for tokens that no longer have cache entries.
type versionEntry struct {
	n         uint64
	touchedAt time.Time
}

// NewManager creates a session manager. Call Start before serving requests
// and Close on shutdown.
func NewManager(store *SessionStore, resolver IdentityResolver, rdb *redis.Client) *Manager {
	return &Manager{
		store:    store,
		resolver: resolver,
		rdb:      rdb,
		cache:    make(map[string]*cacheEntry),
		versions: make(map[string]*versionEntry),
		events:   make(chan sessionEvent, 256),
		done:     make(chan struct{}),
	}
}

// Start subscribes to session-change events and begins processing them.
// It always returns within subscribeTimeout: if the subscription cannot be
// confirmed, the manager degrades to pass-through mode (every lookup goes
// to the store, nothing is cached) rather than blocking startup. Requests
// are never left hanging on an unreachable Redis.
func (m *Manager) Start(ctx context.Context) error {
	subCtx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()

	pubsub := m.rdb.Subscribe(subCtx, sessionEventChannel)
	if _, err := pubsub.Receive(subCtx); err != nil {
		pubsub.Close()
		m.mu.Lock()
		m.degraded = true
		m.mu.Unlock()
		slog.Warn("session event subscription unavailable, caching disabled",
			slog.Any("error", err),
		)
		return nil
	}

	m.pubsub = pubsub

	m.wg.Add(2)
	go m.receive()
	go m.work()

	return nil
}

// receive reads messages off the subscription and hands them to the worker.
// The receive loop itself never mutates the cache and never issues Redis
// commands: a subscribed connection cannot serve other commands mid-receive,
// and any work done inline here would stall event delivery. Everything is
// scheduled onto the worker goroutine instead.
func (m *Manager) receive() {
	defer m.wg.Done()

	ch := m.pubsub.Channel()
	for msg := range ch {
		var ev sessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			continue
		}

		select {
		case m.events <- ev:
		case <-m.done:
			return
		}
	}
}

// work applies queued events to the cache and periodically prunes version
// tombstones.
func (m *Manager) work() {
	defer m.wg.Done()

	janitor := time.NewTicker(cacheEntryTTL)
	defer janitor.Stop()

	for {
		select {
		case ev := <-m.events:
			m.apply(ev)
		case <-janitor.C:
			m.prune()
		case <-m.done:
			return
		}
	}
}

// apply handles one session-change event.
func (m *Manager) apply(ev sessionEvent) {
	switch ev.Kind {
	case eventSessionCreated:
		// Nothing to do -- the cache fills lazily on first lookup.
	case eventSessionDestroyed:
		m.invalidateToken(ev.Token)
	case eventUserInvalidated:
		m.invalidateUser(ev.UserID)
	}
}

// invalidateToken evicts a token's cache entry and bumps its version so any
// in-flight resolve for it is discarded on completion.
func (m *Manager) invalidateToken(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, token)
	m.bumpLocked(token)
}

// invalidateUser evicts every cached session belonging to a user.
func (m *Manager) invalidateUser(userID string) {
	if userID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, entry := range m.cache {
		if entry.session.UserID == userID {
			delete(m.cache, token)
			m.bumpLocked(token)
		}
	}
}

// bumpLocked increments a token's version. Caller holds m.mu.
func (m *Manager) bumpLocked(token string) {
	ve, ok := m.versions[token]
	if !ok {
		ve = &versionEntry{}
		m.versions[token] = ve
	}
	ve.n++
	ve.touchedAt = time.Now()
}

// prune drops version tombstones that have no cache entry and haven't been
// touched within the cache TTL. Any resolve still in flight for them has
// long since completed.
func (m *Manager) prune() {
	cutoff := time.Now().Add(-cacheEntryTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, ve := range m.versions {
		if _, cached := m.cache[token]; !cached && ve.touchedAt.Before(cutoff) {
			delete(m.versions, token)
		}
	}
}

// Lookup validates a session token and returns the session with the
// user's current role and display data. Returns apperror.Unauthorized for
// missing, expired, or invalid tokens.
func (m *Manager) Lookup(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	degraded := m.degraded
	if entry, ok := m.cache[token]; ok && time.Since(entry.storedAt) < cacheEntryTTL {
		session := entry.session
		m.mu.RUnlock()
		return session, nil
	}
	m.mu.RUnlock()

	// Observe the token's version before resolving. If an invalidation
	// lands while we're resolving, the version moves and the result below
	// is returned to this caller but not written back.
	observed := m.versionOf(token)

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	// Re-resolve the profile so role changes take effect without a fresh
	// login. A resolver transport failure falls back to the snapshot taken
	// at login -- the user stays signed in with possibly-stale display
	// data rather than being bounced by an infrastructure blip.
	if profile, rerr := m.resolver.ResolveProfile(ctx, session.UserID, session.Email); rerr == nil {
		session.Role = profile.Role
		session.DisplayName = profile.DisplayName
	} else {
		slog.Warn("profile re-resolution failed, using session snapshot",
			slog.String("user_id", session.UserID),
			slog.Any("error", rerr),
		)
	}

	if !degraded {
		m.mu.Lock()
		if m.versionOfLocked(token) == observed {
			m.cache[token] = &cacheEntry{
				session:  session,
				storedAt: time.Now(),
			}
		}
		m.mu.Unlock()
	}

	return session, nil
}

// versionOf returns a token's current invalidation version (0 if never
// invalidated).
func (m *Manager) versionOf(token string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versionOfLocked(token)
}

// versionOfLocked is versionOf for callers already holding m.mu.
func (m *Manager) versionOfLocked(token string) uint64 {
	if ve, ok := m.versions[token]; ok {
		return ve.n
	}
	return 0
}

// Close unsubscribes from session events and waits for the worker goroutines
// to drain. Safe to call once on shutdown.
func (m *Manager) Close() {
	close(m.done)
	if m.pubsub != nil {
		m.pubsub.Close()
	}
	m.wg.Wait()
}
