// Package session implements the web tier's token sessions. Identity
// travels in a signed JWT; a revocable registry maps the token ID to the
// username for the session TTL, so logout actually invalidates the token
// instead of waiting out its expiry. The registry lives in redis when a
// server is reachable and in process memory otherwise.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gather/internal/models"
)

const (
	issuer   = "gather-api"
	audience = "gather-client"
)

// registry is the revocation store behind the JWT: a token is live only
// while its ID resolves to a username here.
type registry interface {
	Put(ctx context.Context, id, username string, ttl time.Duration) error
	Get(ctx context.Context, id string) (string, bool, error)
	Delete(ctx context.Context, id string) error
}

// Manager issues, resolves, and revokes session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  registry

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewManager returns a manager signing with secret and registering
// sessions for ttl. A nil client selects the in-process registry.
func NewManager(secret string, ttl time.Duration, client *redis.Client) *Manager {
	var store registry
	if client != nil {
		store = &redisRegistry{client: client}
	} else {
		store = newMemoryRegistry()
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// Issue creates a signed token for username and registers its ID.
func (m *Manager) Issue(ctx context.Context, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	id := uuid.NewString()
	now := m.now()
	claims := jwt.MapClaims{
		"sub": username,
		"iss": issuer,
		"aud": audience,
		"exp": now.Add(m.ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": id,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, id, username, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve validates the token signature and claims and returns the
// username, provided the session has not been revoked.
func (m *Manager) Resolve(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil || !token.Valid {
		return "", models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", models.NewUnauthorizedError("Invalid token claims")
	}
	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return "", models.NewUnauthorizedError("Invalid token subject")
	}
	id, ok := claims["jti"].(string)
	if !ok || id == "" {
		return "", models.NewUnauthorizedError("Invalid token ID")
	}

	registered, found, err := m.store.Get(ctx, id)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if !found || registered != username {
		return "", models.NewUnauthorizedError("Session has been revoked")
	}
	return username, nil
}

// Revoke invalidates the token's session. Revoking an already-invalid
// token is not an error.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, ok := claims["jti"].(string)
	if !ok || id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// memoryRegistry is the single-process fallback used when redis is not
// reachable. Expired entries are dropped lazily on lookup.
type memoryRegistry struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	username string
	expires  time.Time
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{entries: make(map[string]memoryEntry)}
}

func (r *memoryRegistry) Put(ctx context.Context, id, username string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = memoryEntry{username: username, expires: time.Now().Add(ttl)}
	return nil
}

func (r *memoryRegistry) Get(ctx context.Context, id string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expires) {
		delete(r.entries, id)
		return "", false, nil
	}
	return entry.username, true, nil
}

func (r *memoryRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}
