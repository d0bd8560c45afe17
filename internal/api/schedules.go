package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

type scheduleRequest struct {
	WorkflowID string         `json:"workflowId"`
	CronExpr   string         `json:"cronExpr"`
	Input      map[string]any `json:"input,omitempty"`
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedulerSvc == nil {
		writeError(w, http.StatusNotImplemented, "not_implemented", "scheduler is disabled")
		return
	}
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	var input any
	if req.Input != nil {
		input = req.Input
	}
	sched, err := s.schedulerSvc.Add(r.Context(), identity, req.WorkflowID, req.CronExpr, input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request) {
	if s.schedulerSvc == nil {
		writeError(w, http.StatusNotImplemented, "not_implemented", "scheduler is disabled")
		return
	}
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	schedules, err := s.schedulerSvc.List(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if schedules == nil {
		schedules = []*workflow.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedulerSvc == nil {
		writeError(w, http.StatusNotImplemented, "not_implemented", "scheduler is disabled")
		return
	}
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	if err := s.schedulerSvc.Remove(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
