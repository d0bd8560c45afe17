package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/preview"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// previewRequest optionally carries an inline graph so the editor can test
// unsaved edits. NodeID switches to single-node execution.
type previewRequest struct {
	Input    map[string]any     `json:"input"`
	NodeID   string             `json:"nodeId,omitempty"`
	Workflow *workflow.Workflow `json:"workflow,omitempty"`
}

// previewWorkflow executes a workflow through an ephemeral session that keeps
// every step record in the response instead of run history. A step failure
// still returns 200: the failing step carries its error and earlier steps
// stay visible, matching the editor's panel-by-panel display.
func (s *Server) previewWorkflow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	wf := req.Workflow
	if wf == nil {
		wf, err = s.workflowSvc.Get(r.Context(), identity, chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	var input any
	if req.Input != nil {
		input = req.Input
	}

	session := preview.NewSession(s.runner)

	if req.NodeID != "" {
		output, err := session.RunNode(r.Context(), wf, req.NodeID, input)
		if err != nil && errors.Is(err, workflow.ErrNotFound) {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"output": output,
			"steps":  session.Steps(),
		})
		return
	}

	result, _ := session.Run(r.Context(), wf, input)
	writeJSON(w, http.StatusOK, result)
}
