package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Middleware authenticates every request. API keys are presented via
// X-API-Key or as a bearer token with the key prefix; everything else in
// the Authorization header is treated as a session JWT.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.authenticate(r)
		if err != nil {
			writeUnauthenticated(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// keyPrefix distinguishes API keys from JWTs in the Authorization header.
const keyPrefix = "ipk_"

func (a *Authenticator) authenticate(r *http.Request) (*Identity, error) {
	if raw := r.Header.Get("X-API-Key"); raw != "" {
		return a.FromAPIKey(r.Context(), raw)
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, ErrUnauthenticated
	}
	if strings.HasPrefix(token, keyPrefix) {
		return a.FromAPIKey(r.Context(), token)
	}
	return a.FromToken(token)
}

// RequireScope rejects API-key identities lacking the scope. JWT sessions
// pass through.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := FromContext(r.Context())
			if err != nil {
				writeUnauthenticated(w)
				return
			}
			if !identity.HasScope(scope) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "access_denied", "message": "missing scope " + scope},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthenticated", "message": "not authenticated"},
	})
}
