package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type stubKeyStore struct {
	keys    map[string]*APIKey
	touched []string
}

func newStubKeyStore(keys ...*APIKey) *stubKeyStore {
	s := &stubKeyStore{keys: make(map[string]*APIKey)}
	for _, k := range keys {
		s.keys[k.KeyHash] = k
	}
	return s
}

func (s *stubKeyStore) GetByHash(_ context.Context, hash string) (*APIKey, error) {
	k, ok := s.keys[hash]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return k, nil
}

func (s *stubKeyStore) TouchLastUsed(_ context.Context, id string, _ time.Time) error {
	s.touched = append(s.touched, id)
	return nil
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestFromTokenValid(t *testing.T) {
	a := NewAuthenticator("secret", nil)

	identity, err := a.FromToken(signToken(t, "secret", "user-1"))
	if err != nil {
		t.Fatalf("from token: %v", err)
	}
	if identity.Subject != "user-1" {
		t.Fatalf("subject = %s", identity.Subject)
	}
	if !identity.HasScope(ScopeRunsExecute) {
		t.Fatal("JWT identity must be unrestricted")
	}
}

func TestFromTokenWrongSecret(t *testing.T) {
	a := NewAuthenticator("secret", nil)
	if _, err := a.FromToken(signToken(t, "other-secret", "user-1")); err == nil {
		t.Fatal("token signed with wrong secret must be rejected")
	}
}

func TestFromTokenExpired(t *testing.T) {
	a := NewAuthenticator("secret", nil)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte("secret"))

	if _, err := a.FromToken(signed); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestFromAPIKey(t *testing.T) {
	key := &APIKey{
		ID:       "key-1",
		OwnerID:  "user-2",
		KeyHash:  HashKey("ipk_raw"),
		Scopes:   []string{ScopeWorkflowsRead},
		IsActive: true,
	}
	store := newStubKeyStore(key)
	a := NewAuthenticator("secret", store)

	identity, err := a.FromAPIKey(context.Background(), "ipk_raw")
	if err != nil {
		t.Fatalf("from api key: %v", err)
	}
	if identity.Subject != "user-2" {
		t.Fatalf("subject = %s", identity.Subject)
	}
	if identity.HasScope(ScopeRunsExecute) {
		t.Fatal("scoped key must not pass other scopes")
	}
	if !identity.HasScope(ScopeWorkflowsRead) {
		t.Fatal("granted scope missing")
	}
	if len(store.touched) != 1 || store.touched[0] != "key-1" {
		t.Fatalf("last-used not recorded: %v", store.touched)
	}
}

func TestFromAPIKeyInactive(t *testing.T) {
	key := &APIKey{ID: "key-1", KeyHash: HashKey("ipk_dead"), IsActive: false}
	a := NewAuthenticator("secret", newStubKeyStore(key))

	if _, err := a.FromAPIKey(context.Background(), "ipk_dead"); err == nil {
		t.Fatal("inactive key must be rejected")
	}
}

func TestMiddlewareCredentialRouting(t *testing.T) {
	key := &APIKey{ID: "key-1", OwnerID: "key-owner", KeyHash: HashKey("ipk_mw"), IsActive: true}
	a := NewAuthenticator("secret", newStubKeyStore(key))

	var gotSubject string
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := FromContext(r.Context())
		if err != nil {
			t.Errorf("identity missing: %v", err)
			return
		}
		gotSubject = identity.Subject
	}))

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantSub    string
	}{
		{"x-api-key header", "X-API-Key", "ipk_mw", http.StatusOK, "key-owner"},
		{"bearer api key", "Authorization", "Bearer ipk_mw", http.StatusOK, "key-owner"},
		{"bearer jwt", "Authorization", "Bearer " + signToken(t, "secret", "jwt-user"), http.StatusOK, "jwt-user"},
		{"no credentials", "", "", http.StatusUnauthorized, ""},
		{"garbage bearer", "Authorization", "Bearer nonsense", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotSubject != tt.wantSub {
				t.Fatalf("subject = %q, want %q", gotSubject, tt.wantSub)
			}
		})
	}
}
