package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// RunService orchestrates workflow execution: it creates the Run record,
// drives the engine with a persisting recorder, and settles the run into a
// terminal state. Execution is synchronous; the caller gets the finished run.
type RunService struct {
	workflows repository.WorkflowRepository
	runs      repository.RunRepository
	steps     repository.StepRepository
	runner    *engine.Runner
	limiter   *ConcurrencyLimiter
}

func NewRunService(
	workflows repository.WorkflowRepository,
	runs repository.RunRepository,
	steps repository.StepRepository,
	runner *engine.Runner,
	limiter *ConcurrencyLimiter,
) *RunService {
	return &RunService{
		workflows: workflows,
		runs:      runs,
		steps:     steps,
		runner:    runner,
		limiter:   limiter,
	}
}

// Execute runs a workflow end to end. The run is created pending, moved to
// running once a concurrency slot is held, and settled completed or failed.
// A failed run keeps the steps recorded before the failure as an audit trail.
// The returned run is terminal even when err is non-nil: callers get the run
// id and the failure together.
func (s *RunService) Execute(ctx context.Context, identity *auth.Identity, workflowID string, input any) (*workflow.Run, error) {
	wf, err := s.ownedWorkflow(ctx, identity, workflowID)
	if err != nil {
		return nil, err
	}

	// totalSteps counts every node in the graph, input included, even though
	// only ai nodes produce step records.
	run, err := s.createRun(ctx, wf, identity, input, len(wf.Nodes))
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx, wf.ID); err != nil {
		s.failRun(ctx, run, err)
		return run, err
	}
	defer s.limiter.Release(wf.ID)

	s.markRunning(ctx, run)
	started := time.Now()

	output, execErr := s.runner.Execute(ctx, wf, input, &runRecorder{svc: s, run: run})
	run.Metadata.DurationMillis = time.Since(started).Milliseconds()

	if execErr != nil {
		s.failRun(ctx, run, execErr)
		slog.Warn("run failed", "run_id", run.ID, "workflow_id", wf.ID, "err", execErr)
		return run, execErr
	}

	run.Status = workflow.RunStatusCompleted
	run.Output = output
	run.UpdatedAt = time.Now()
	if err := s.runs.Update(ctx, run); err != nil {
		return run, fmt.Errorf("settle run: %w", err)
	}
	slog.Info("run completed", "run_id", run.ID, "workflow_id", wf.ID,
		"steps", run.Metadata.CompletedSteps, "duration_ms", run.Metadata.DurationMillis)
	return run, nil
}

// ExecuteStep runs a single node of a workflow against a caller-supplied
// input, bypassing the sequential pipeline. The step still gets a run record
// as its container so it is queryable through the same history APIs.
func (s *RunService) ExecuteStep(ctx context.Context, identity *auth.Identity, workflowID, nodeID string, input any) (*workflow.Run, error) {
	wf, err := s.ownedWorkflow(ctx, identity, workflowID)
	if err != nil {
		return nil, err
	}

	run, err := s.createRun(ctx, wf, identity, input, 1)
	if err != nil {
		return nil, err
	}

	s.markRunning(ctx, run)
	started := time.Now()

	output, execErr := s.runner.ExecuteStep(ctx, wf, nodeID, input, &runRecorder{svc: s, run: run})
	run.Metadata.DurationMillis = time.Since(started).Milliseconds()

	if execErr != nil {
		s.failRun(ctx, run, execErr)
		return run, execErr
	}

	run.Status = workflow.RunStatusCompleted
	run.Output = output
	run.UpdatedAt = time.Now()
	if err := s.runs.Update(ctx, run); err != nil {
		return run, fmt.Errorf("settle run: %w", err)
	}
	return run, nil
}

// GetRun returns an owned run with its recorded steps in creation order.
func (s *RunService) GetRun(ctx context.Context, identity *auth.Identity, runID string) (*workflow.Run, []*workflow.Step, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.OwnerID != identity.Subject {
		return nil, nil, fmt.Errorf("%w: run %s", workflow.ErrNotFound, runID)
	}
	steps, err := s.steps.ListByRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("list steps: %w", err)
	}
	return run, steps, nil
}

// ListRuns returns an owned workflow's runs, newest first, with the total
// count for pagination.
func (s *RunService) ListRuns(ctx context.Context, identity *auth.Identity, workflowID string, limit, offset int) ([]*workflow.Run, int, error) {
	if _, err := s.ownedWorkflow(ctx, identity, workflowID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.runs.ListByWorkflow(ctx, workflowID, limit, offset)
}

func (s *RunService) ownedWorkflow(ctx context.Context, identity *auth.Identity, id string) (*workflow.Workflow, error) {
	wf, err := s.workflows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if wf.OwnerID != identity.Subject {
		return nil, fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, id)
	}
	return wf, nil
}

func (s *RunService) createRun(ctx context.Context, wf *workflow.Workflow, identity *auth.Identity, input any, totalSteps int) (*workflow.Run, error) {
	run := &workflow.Run{
		ID:         workflow.NewID("run"),
		WorkflowID: wf.ID,
		OwnerID:    identity.Subject,
		Status:     workflow.RunStatusPending,
		Input:      input,
		Metadata:   workflow.RunMetadata{TotalSteps: totalSteps},
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

func (s *RunService) markRunning(ctx context.Context, run *workflow.Run) {
	run.Status = workflow.RunStatusRunning
	run.UpdatedAt = time.Now()
	if err := s.runs.Update(ctx, run); err != nil {
		slog.Warn("failed to mark run running", "run_id", run.ID, "err", err)
	}
}

func (s *RunService) failRun(ctx context.Context, run *workflow.Run, cause error) {
	msg := cause.Error()
	run.Status = workflow.RunStatusFailed
	run.Error = &msg
	run.UpdatedAt = time.Now()
	if err := s.runs.Update(ctx, run); err != nil {
		slog.Warn("failed to settle failed run", "run_id", run.ID, "err", err)
	}
}

// runRecorder persists step lifecycle events and keeps the owning run's
// progress counters current so pollers see completed_steps and cost advance
// while the run executes. It retains the open steps so completion updates
// carry the full record, not a partial one.
type runRecorder struct {
	svc  *RunService
	run  *workflow.Run
	open map[string]*workflow.Step
}

func (r *runRecorder) StepStarted(ctx context.Context, node *workflow.Node, seq int, input any) (string, error) {
	step := &workflow.Step{
		ID:       workflow.NewID("step"),
		RunID:    r.run.ID,
		OwnerID:  r.run.OwnerID,
		NodeID:   node.ID,
		NodeType: node.Type,
		Status:   workflow.StepStatusPending,
		Seq:      seq,
		Input:    input,
	}
	if err := r.svc.steps.Create(ctx, step); err != nil {
		return "", err
	}
	step.Status = workflow.StepStatusRunning
	step.StartedAt = time.Now()
	if err := r.svc.steps.Update(ctx, step); err != nil {
		return "", err
	}
	if r.open == nil {
		r.open = make(map[string]*workflow.Step)
	}
	r.open[step.ID] = step
	return step.ID, nil
}

func (r *runRecorder) StepCompleted(ctx context.Context, stepID string, output any, meta *workflow.StepMetadata) error {
	step, ok := r.open[stepID]
	if !ok {
		return fmt.Errorf("%w: step %s", workflow.ErrNotFound, stepID)
	}
	now := time.Now()
	step.Status = workflow.StepStatusCompleted
	step.Output = output
	step.Metadata = meta
	step.CompletedAt = &now
	if err := r.svc.steps.Update(ctx, step); err != nil {
		return err
	}
	delete(r.open, stepID)

	r.run.Metadata.CompletedSteps++
	if meta != nil {
		r.run.Metadata.Cost += meta.Cost
	}
	r.run.UpdatedAt = now
	if err := r.svc.runs.Update(ctx, r.run); err != nil {
		slog.Warn("failed to update run progress", "run_id", r.run.ID, "err", err)
	}
	return nil
}

func (r *runRecorder) StepFailed(ctx context.Context, stepID string, errMsg string) error {
	step, ok := r.open[stepID]
	if !ok {
		return fmt.Errorf("%w: step %s", workflow.ErrNotFound, stepID)
	}
	now := time.Now()
	step.Status = workflow.StepStatusFailed
	step.Error = &errMsg
	step.CompletedAt = &now
	delete(r.open, stepID)
	return r.svc.steps.Update(ctx, step)
}
