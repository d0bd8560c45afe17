// Package auth resolves caller identities. Two credential kinds are
// accepted: bearer JWTs issued by the hosted auth provider (the identity
// subject becomes the owner key on every record) and API keys with scopes
// for the public SDK surface.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scopes grantable to API keys.
const (
	ScopeWorkflowsRead  = "workflows:read"
	ScopeWorkflowsWrite = "workflows:write"
	ScopeRunsExecute    = "runs:execute"
)

var ErrUnauthenticated = errors.New("not authenticated")

// Identity is the authenticated caller. Subject is the opaque ownership key
// stamped onto workflows, runs, and steps. A JWT identity carries no scope
// restrictions; an API-key identity is limited to the key's scopes.
type Identity struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the identity may perform actions requiring the
// given scope. An empty scope list means unrestricted (JWT session).
func (id *Identity) HasScope(scope string) bool {
	if len(id.Scopes) == 0 {
		return true
	}
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// APIKey is a hashed credential for the public API.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"owner_id"`
	KeyHash    string     `json:"key_hash"`
	Scopes     []string   `json:"scopes"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// KeyStore is the API key lookup the authenticator depends on.
type KeyStore interface {
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// HashKey returns the hex sha256 digest stored in place of raw key material.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Authenticator validates credentials into identities.
type Authenticator struct {
	jwtSecret []byte
	keys      KeyStore
}

func NewAuthenticator(jwtSecret string, keys KeyStore) *Authenticator {
	return &Authenticator{jwtSecret: []byte(jwtSecret), keys: keys}
}

// FromToken validates a bearer JWT and returns the session identity.
func (a *Authenticator) FromToken(tokenString string) (*Identity, error) {
	if len(a.jwtSecret) == 0 {
		return nil, ErrUnauthenticated
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrUnauthenticated
	}
	return &Identity{Subject: subject}, nil
}

// FromAPIKey resolves a raw API key into its owner identity with the key's
// scopes, and records the use.
func (a *Authenticator) FromAPIKey(ctx context.Context, raw string) (*Identity, error) {
	if a.keys == nil {
		return nil, ErrUnauthenticated
	}
	key, err := a.keys.GetByHash(ctx, HashKey(raw))
	if err != nil || !key.IsActive {
		return nil, ErrUnauthenticated
	}
	_ = a.keys.TouchLastUsed(ctx, key.ID, time.Now())
	return &Identity{Subject: key.OwnerID, Scopes: key.Scopes}, nil
}

type contextKey struct{}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the authenticated identity, or ErrUnauthenticated.
func FromContext(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, ErrUnauthenticated
	}
	return id, nil
}
