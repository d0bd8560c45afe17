package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// executeRunRequest is the body of POST /v1/workflows/{workflowId}/runs.
// StepID switches to single-node execution.
type executeRunRequest struct {
	Input  map[string]any `json:"input"`
	StepID string         `json:"stepId,omitempty"`
}

// executeRun runs a workflow synchronously and returns the settled run.
func (s *Server) executeRun(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}
	workflowID := chi.URLParam(r, "workflowId")

	var req executeRunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
	}

	var input any
	if req.Input != nil {
		input = req.Input
	}

	var run *workflow.Run
	var execErr error
	if req.StepID != "" {
		run, execErr = s.runSvc.ExecuteStep(r.Context(), identity, workflowID, req.StepID, input)
	} else {
		run, execErr = s.runSvc.Execute(r.Context(), identity, workflowID, input)
	}

	if execErr != nil {
		switch {
		case errors.Is(execErr, workflow.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", execErr.Error())
		case errors.Is(execErr, workflow.ErrValidation):
			writeError(w, http.StatusBadRequest, "validation_error", execErr.Error())
		case run != nil:
			// The run exists and is settled failed; report the execution failure.
			writeError(w, http.StatusInternalServerError, "run_failed", execErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runId":  run.ID,
		"status": run.Status,
		"output": run.Output,
	})
}

// getRunV1 returns a run with its recorded steps.
func (s *Server) getRunV1(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}
	runID := chi.URLParam(r, "runId")
	if runID == "" {
		runID = chi.URLParam(r, "id")
	}

	run, steps, err := s.runSvc.GetRun(r.Context(), identity, runID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runId":      run.ID,
		"workflowId": run.WorkflowID,
		"status":     run.Status,
		"input":      run.Input,
		"output":     run.Output,
		"error":      run.Error,
		"metadata":   run.Metadata,
		"steps":      steps,
		"createdAt":  run.CreatedAt,
		"updatedAt":  run.UpdatedAt,
	})
}

// listWorkflowRuns returns a workflow's run history, newest first.
func (s *Server) listWorkflowRuns(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}
	workflowID := chi.URLParam(r, "id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	runs, total, err := s.runSvc.ListRuns(r.Context(), identity, workflowID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if runs == nil {
		runs = []*workflow.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": total,
	})
}
