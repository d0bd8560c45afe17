package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/services"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

type workflowRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Status      workflow.WorkflowStatus `json:"status,omitempty"`
	Nodes       []workflow.Node         `json:"nodes"`
	Edges       []workflow.Edge         `json:"edges"`
	Variables   []workflow.Variable     `json:"variables,omitempty"`
	Version     int                     `json:"version,omitempty"`
}

func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	wf, err := s.workflowSvc.Create(r.Context(), identity, services.CreateParams{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Variables:   req.Variables,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	workflows, err := s.workflowSvc.List(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if workflows == nil {
		workflows = []*workflow.Workflow{}
	}
	writeJSON(w, http.StatusOK, workflows)
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	wf, err := s.workflowSvc.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req workflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	wf, err := s.workflowSvc.Update(r.Context(), identity, chi.URLParam(r, "id"), services.UpdateParams{
		Name:            req.Name,
		Description:     req.Description,
		Status:          req.Status,
		Nodes:           req.Nodes,
		Edges:           req.Edges,
		Variables:       req.Variables,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	if err := s.workflowSvc.Delete(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
