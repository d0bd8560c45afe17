package api

import (
	"net/http"

	"github.com/inferpipe/inferpipe/internal/provider"
)

// listModels returns the grouped model catalog the builder's picker renders.
func (s *Server) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": provider.Catalog()})
}
