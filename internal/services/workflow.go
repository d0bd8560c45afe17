// Package services holds the business logic between the HTTP layer and the
// repositories: workflow CRUD with ownership checks, run orchestration, and
// cron-driven scheduled execution.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/dag"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// WorkflowService manages workflow definitions. Every accessor checks that
// the caller owns the record; a foreign id reads as not found rather than
// confirming the record exists.
type WorkflowService struct {
	repo repository.WorkflowRepository
}

func NewWorkflowService(repo repository.WorkflowRepository) *WorkflowService {
	return &WorkflowService{repo: repo}
}

// CreateParams carries the writable fields of a workflow.
type CreateParams struct {
	Name        string
	Description string
	Nodes       []workflow.Node
	Edges       []workflow.Edge
	Variables   []workflow.Variable
}

// UpdateParams carries a full replacement of the workflow's editable state.
// ExpectedVersion is the version the client last saw; a mismatch rejects the
// write so concurrent editors cannot silently clobber each other.
type UpdateParams struct {
	Name            string
	Description     string
	Status          workflow.WorkflowStatus
	Nodes           []workflow.Node
	Edges           []workflow.Edge
	Variables       []workflow.Variable
	ExpectedVersion int
}

// Create stores a new draft workflow. A workflow with no input node gets one
// seeded at the canvas origin so the editor always has a seed source.
func (s *WorkflowService) Create(ctx context.Context, identity *auth.Identity, params CreateParams) (*workflow.Workflow, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("%w: name is required", workflow.ErrValidation)
	}

	nodes := params.Nodes
	hasInput := false
	for i := range nodes {
		if nodes[i].Type == workflow.NodeTypeInput {
			hasInput = true
			break
		}
	}
	if !hasInput {
		nodes = append([]workflow.Node{{
			ID:       workflow.NewID("node"),
			Type:     workflow.NodeTypeInput,
			Position: workflow.Position{X: 0, Y: 0},
			Data:     map[string]any{},
		}}, nodes...)
	}

	wf := &workflow.Workflow{
		ID:          workflow.NewID("wf"),
		Name:        params.Name,
		Description: params.Description,
		Status:      workflow.WorkflowStatusDraft,
		Nodes:       nodes,
		Edges:       params.Edges,
		Variables:   params.Variables,
		Version:     1,
		OwnerID:     identity.Subject,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := validateGraph(wf); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, wf); err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	return wf, nil
}

// Get returns an owned workflow. Foreign workflows read as not found.
func (s *WorkflowService) Get(ctx context.Context, identity *auth.Identity, id string) (*workflow.Workflow, error) {
	wf, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf.OwnerID != identity.Subject {
		return nil, fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, id)
	}
	return wf, nil
}

// List returns the caller's workflows, newest first.
func (s *WorkflowService) List(ctx context.Context, identity *auth.Identity) ([]*workflow.Workflow, error) {
	return s.repo.ListByOwner(ctx, identity.Subject)
}

// Update replaces the workflow's editable state whole and bumps the version.
// Stale writes (ExpectedVersion behind the stored version) are rejected.
func (s *WorkflowService) Update(ctx context.Context, identity *auth.Identity, id string, params UpdateParams) (*workflow.Workflow, error) {
	current, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if params.ExpectedVersion != 0 && params.ExpectedVersion != current.Version {
		return nil, fmt.Errorf("%w: workflow %s is at version %d, update expected %d",
			workflow.ErrConflict, id, current.Version, params.ExpectedVersion)
	}

	// Mutate a copy so a rejected update never alters stored state.
	wf := *current

	if params.Name != "" {
		wf.Name = params.Name
	}
	wf.Description = params.Description
	if params.Status != "" {
		wf.Status = params.Status
	}
	if params.Nodes != nil {
		wf.Nodes = params.Nodes
	}
	if params.Edges != nil {
		wf.Edges = params.Edges
	}
	if params.Variables != nil {
		wf.Variables = params.Variables
	}

	// The editor relies on an input node as the run seed; a save may not
	// remove the last one.
	if wf.InputNode() == nil {
		return nil, fmt.Errorf("%w: workflow must keep at least one input node", workflow.ErrValidation)
	}
	if err := validateGraph(&wf); err != nil {
		return nil, err
	}

	wf.Version++
	wf.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, &wf); err != nil {
		return nil, fmt.Errorf("update workflow: %w", err)
	}
	return &wf, nil
}

// Delete removes an owned workflow.
func (s *WorkflowService) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// validateGraph checks structural integrity: unique node ids, edges that
// reference existing nodes, and no cycles.
func validateGraph(wf *workflow.Workflow) error {
	if _, err := dag.Build(wf); err != nil {
		return err
	}
	return nil
}
