package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

type createKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

var validScopes = map[string]bool{
	auth.ScopeWorkflowsRead:  true,
	auth.ScopeWorkflowsWrite: true,
	auth.ScopeRunsExecute:    true,
}

// createAPIKey mints an API key for the public surface. The raw key is
// returned exactly once; only its hash is stored.
func (s *Server) createAPIKey(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	for _, scope := range req.Scopes {
		if !validScopes[scope] {
			writeError(w, http.StatusBadRequest, "validation_error", "unknown scope "+scope)
			return
		}
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{auth.ScopeWorkflowsRead, auth.ScopeWorkflowsWrite, auth.ScopeRunsExecute}
	}

	raw, err := newRawKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	key := &auth.APIKey{
		ID:        workflow.NewID("key"),
		Name:      req.Name,
		OwnerID:   identity.Subject,
		KeyHash:   auth.HashKey(raw),
		Scopes:    req.Scopes,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.keys.Create(r.Context(), key); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        key.ID,
		"name":      key.Name,
		"key":       raw,
		"scopes":    key.Scopes,
		"createdAt": key.CreatedAt,
	})
}

func newRawKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "ipk_" + hex.EncodeToString(buf), nil
}
