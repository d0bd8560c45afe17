// Package api exposes the HTTP surface: the public /v1 run API consumed by
// external callers and SDKs, and the /api editor surface the builder UI uses.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/services"
)

type Server struct {
	workflowSvc  *services.WorkflowService
	runSvc       *services.RunService
	schedulerSvc *services.SchedulerService
	authn        *auth.Authenticator
	keys         repository.APIKeyRepository
	runner       *engine.Runner
}

func NewServer(
	workflowSvc *services.WorkflowService,
	runSvc *services.RunService,
	authn *auth.Authenticator,
	runner *engine.Runner,
) *Server {
	return &Server{
		workflowSvc: workflowSvc,
		runSvc:      runSvc,
		authn:       authn,
		runner:      runner,
	}
}

// SetSchedulerService enables the schedule management endpoints.
func (s *Server) SetSchedulerService(svc *services.SchedulerService) {
	s.schedulerSvc = svc
}

// SetAPIKeyRepository enables the key issuance endpoint.
func (s *Server) SetAPIKeyRepository(repo repository.APIKeyRepository) {
	s.keys = repo
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
	}))

	// Public API for external callers and SDKs.
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authn.Middleware)
		r.With(auth.RequireScope(auth.ScopeRunsExecute)).
			Post("/workflows/{workflowId}/runs", s.executeRun)
		r.With(auth.RequireScope(auth.ScopeRunsExecute)).
			Get("/runs/{runId}", s.getRunV1)
	})

	// Editor surface.
	r.Route("/api", func(r chi.Router) {
		r.Use(s.authn.Middleware)
		r.Route("/workflows", func(r chi.Router) {
			r.With(auth.RequireScope(auth.ScopeWorkflowsWrite)).Post("/", s.createWorkflow)
			r.With(auth.RequireScope(auth.ScopeWorkflowsRead)).Get("/", s.listWorkflows)
			r.With(auth.RequireScope(auth.ScopeWorkflowsRead)).Get("/{id}", s.getWorkflow)
			r.With(auth.RequireScope(auth.ScopeWorkflowsWrite)).Put("/{id}", s.updateWorkflow)
			r.With(auth.RequireScope(auth.ScopeWorkflowsWrite)).Delete("/{id}", s.deleteWorkflow)
			r.With(auth.RequireScope(auth.ScopeWorkflowsRead)).Get("/{id}/runs", s.listWorkflowRuns)
			r.With(auth.RequireScope(auth.ScopeRunsExecute)).Post("/{id}/preview", s.previewWorkflow)
		})
		r.With(auth.RequireScope(auth.ScopeWorkflowsRead)).Get("/runs/{id}", s.getRunV1)
		r.Get("/models", s.listModels)
		if s.keys != nil {
			r.Post("/keys", s.createAPIKey)
		}
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", s.createSchedule)
			r.Get("/", s.listSchedules)
			r.Delete("/{id}", s.deleteSchedule)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
