package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/provider"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// fakeProvider replies with fixed text and can be told to fail a given call.
type fakeProvider struct {
	reply    string
	failCall int // 1-based call number to fail on; 0 disables
	calls    int
}

func (p *fakeProvider) Name() string { return "openai" }

func (p *fakeProvider) GenerateText(_ context.Context, _ *provider.TextRequest) (*provider.TextResult, error) {
	p.calls++
	if p.failCall > 0 && p.calls == p.failCall {
		return nil, errors.New("model unavailable")
	}
	return &provider.TextResult{Text: p.reply, Usage: &provider.Usage{InputTokens: 100, OutputTokens: 50}}, nil
}

func (p *fakeProvider) GenerateStructured(_ context.Context, _ *provider.StructuredRequest) (*provider.StructuredResult, error) {
	p.calls++
	return &provider.StructuredResult{Object: map[string]any{"echo": p.reply}}, nil
}

type fixture struct {
	workflows *repository.MemoryWorkflowRepository
	runs      *repository.MemoryRunRepository
	steps     *repository.MemoryStepRepository
	runSvc    *RunService
	wfSvc     *WorkflowService
}

func newFixture(prov provider.Provider) *fixture {
	reg := provider.NewRegistry()
	reg.Register(prov)

	workflows := repository.NewMemoryWorkflowRepository()
	runs := repository.NewMemoryRunRepository()
	steps := repository.NewMemoryStepRepository()
	runner := engine.NewRunner(reg, 0)
	limiter := NewConcurrencyLimiter(ConcurrencyLimits{})

	return &fixture{
		workflows: workflows,
		runs:      runs,
		steps:     steps,
		runSvc:    NewRunService(workflows, runs, steps, runner, limiter),
		wfSvc:     NewWorkflowService(workflows),
	}
}

var alice = &auth.Identity{Subject: "user-alice"}
var bob = &auth.Identity{Subject: "user-bob"}

func seedWorkflow(t *testing.T, f *fixture, aiCount int) *workflow.Workflow {
	t.Helper()
	params := CreateParams{
		Name: "test",
		Nodes: []workflow.Node{{
			ID: "in", Type: workflow.NodeTypeInput,
			Data: map[string]any{"textInput": "hi"},
		}},
	}
	for i := 0; i < aiCount; i++ {
		params.Nodes = append(params.Nodes, workflow.Node{
			ID: workflow.NewID("node"), Type: workflow.NodeTypeAI,
			Position: workflow.Position{X: float64((i + 1) * 100)},
			Data:     map[string]any{"prompt": "step", "model": "m1", "outputFormat": "text"},
		})
	}
	wf, err := f.wfSvc.Create(context.Background(), alice, params)
	if err != nil {
		t.Fatalf("create workflow: %v", err)
	}
	return wf
}

func TestExecuteCompletesRunWithSteps(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "done"})
	wf := seedWorkflow(t, f, 3)
	ctx := context.Background()

	run, err := f.runSvc.Execute(ctx, alice, wf.ID, map[string]any{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if run.Status != workflow.RunStatusCompleted {
		t.Fatalf("status = %s", run.Status)
	}
	if run.Output != "done" {
		t.Fatalf("output = %v, want last step's text", run.Output)
	}
	// Total counts every node including the input one; only ai nodes complete.
	if run.Metadata.CompletedSteps != 3 || run.Metadata.TotalSteps != 4 {
		t.Fatalf("metadata = %+v", run.Metadata)
	}
	if run.Metadata.Cost <= 0 {
		t.Fatalf("cost should accumulate, got %v", run.Metadata.Cost)
	}

	_, steps, err := f.runSvc.GetRun(ctx, alice, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	for i, s := range steps {
		if s.Seq != i+1 {
			t.Fatalf("step %d has seq %d", i, s.Seq)
		}
		if s.Status != workflow.StepStatusCompleted {
			t.Fatalf("step %d status = %s", i, s.Status)
		}
	}
	// Sequential data dependency: each step's input is the previous output.
	if steps[1].Input != steps[0].Output {
		t.Fatalf("step 2 input %v != step 1 output %v", steps[1].Input, steps[0].Output)
	}
}

func TestExecuteTotalStepsCountsAllNodes(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "done"})
	wf := seedWorkflow(t, f, 2) // 1 input + 2 ai

	run, err := f.runSvc.Execute(context.Background(), alice, wf.ID, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if run.Metadata.TotalSteps != len(wf.Nodes) {
		t.Fatalf("TotalSteps = %d, want node count %d", run.Metadata.TotalSteps, len(wf.Nodes))
	}
}

// statusTrackingStepRepo records the status each step carries when it is
// first persisted.
type statusTrackingStepRepo struct {
	repository.StepRepository
	created []workflow.StepStatus
}

func (r *statusTrackingStepRepo) Create(ctx context.Context, s *workflow.Step) error {
	r.created = append(r.created, s.Status)
	return r.StepRepository.Create(ctx, s)
}

func TestStepsPersistPendingBeforeRunning(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "ok"})
	tracking := &statusTrackingStepRepo{StepRepository: f.steps}
	f.runSvc = NewRunService(f.workflows, f.runs, tracking, f.runSvc.runner, f.runSvc.limiter)
	wf := seedWorkflow(t, f, 2)
	ctx := context.Background()

	run, err := f.runSvc.Execute(ctx, alice, wf.ID, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(tracking.created) != 2 {
		t.Fatalf("created %d steps, want 2", len(tracking.created))
	}
	for i, st := range tracking.created {
		if st != workflow.StepStatusPending {
			t.Fatalf("step %d created as %s, want pending", i, st)
		}
	}
	_, steps, err := f.runSvc.GetRun(ctx, alice, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	for i, s := range steps {
		if s.Status != workflow.StepStatusCompleted {
			t.Fatalf("step %d settled as %s", i, s.Status)
		}
	}
}

func TestExecuteFailureSettlesRunFailed(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "ok", failCall: 2})
	wf := seedWorkflow(t, f, 3)
	ctx := context.Background()

	run, err := f.runSvc.Execute(ctx, alice, wf.ID, nil)
	if err == nil {
		t.Fatal("expected execution error")
	}
	if run == nil {
		t.Fatal("failed execution must still return the settled run")
	}
	if run.Status != workflow.RunStatusFailed {
		t.Fatalf("status = %s", run.Status)
	}
	if run.Error == nil {
		t.Fatal("failed run must carry the error message")
	}

	// Earlier steps stay as an audit trail.
	_, steps, err := f.runSvc.GetRun(ctx, alice, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want completed + failed", len(steps))
	}
	if steps[0].Status != workflow.StepStatusCompleted {
		t.Fatalf("first step status = %s", steps[0].Status)
	}
	if steps[1].Status != workflow.StepStatusFailed || steps[1].Error == nil {
		t.Fatalf("second step = %+v, want failed with error", steps[1])
	}
}

func TestExecuteIsNotIdempotent(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "same"})
	wf := seedWorkflow(t, f, 1)
	ctx := context.Background()

	first, err := f.runSvc.Execute(ctx, alice, wf.ID, map[string]any{})
	if err != nil {
		t.Fatalf("first execute: %v", err)
	}
	second, err := f.runSvc.Execute(ctx, alice, wf.ID, map[string]any{})
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("repeated executions must produce independent runs")
	}

	_, firstSteps, _ := f.runSvc.GetRun(ctx, alice, first.ID)
	_, secondSteps, _ := f.runSvc.GetRun(ctx, alice, second.ID)
	if firstSteps[0].ID == secondSteps[0].ID {
		t.Fatal("runs must not share step records")
	}
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	f := newFixture(&fakeProvider{})
	_, err := f.runSvc.Execute(context.Background(), alice, "wf-missing", nil)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExecuteForeignWorkflowReadsAsNotFound(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "x"})
	wf := seedWorkflow(t, f, 1)

	_, err := f.runSvc.Execute(context.Background(), bob, wf.ID, nil)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for foreign caller", err)
	}
}

func TestExecuteStepMode(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "solo"})
	wf := seedWorkflow(t, f, 2)
	ctx := context.Background()

	nodeID := wf.Nodes[2].ID
	run, err := f.runSvc.ExecuteStep(ctx, alice, wf.ID, nodeID, map[string]any{"text": "direct"})
	if err != nil {
		t.Fatalf("execute step: %v", err)
	}
	if run.Status != workflow.RunStatusCompleted || run.Output != "solo" {
		t.Fatalf("run = %+v", run)
	}

	_, steps, _ := f.runSvc.GetRun(ctx, alice, run.ID)
	if len(steps) != 1 || steps[0].NodeID != nodeID {
		t.Fatalf("steps = %+v, want single step for %s", steps, nodeID)
	}
}

func TestGetRunForeignCaller(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "x"})
	wf := seedWorkflow(t, f, 1)
	run, err := f.runSvc.Execute(context.Background(), alice, wf.ID, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	_, _, err = f.runSvc.GetRun(context.Background(), bob, run.ID)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListRunsPagination(t *testing.T) {
	f := newFixture(&fakeProvider{reply: "x"})
	wf := seedWorkflow(t, f, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.runSvc.Execute(ctx, alice, wf.ID, nil); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}

	runs, total, err := f.runSvc.ListRuns(ctx, alice, wf.ID, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(runs) != 2 {
		t.Fatalf("total = %d, page = %d; want 5, 2", total, len(runs))
	}

	rest, _, err := f.runSvc.ListRuns(ctx, alice, wf.ID, 10, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rest) != 3 {
		t.Fatalf("offset page = %d, want 3", len(rest))
	}
}
