// Package engine drives workflow execution: it establishes the node order,
// invokes the per-type executors, and reports step lifecycle events to a
// Recorder. Persistence lives behind the Recorder so the same engine serves
// durable runs (services) and in-editor previews (preview).
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/inferpipe/inferpipe/internal/nodes"
	"github.com/inferpipe/inferpipe/internal/provider"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// DefaultStepTimeout bounds a single node invocation.
const DefaultStepTimeout = 2 * time.Minute

// Recorder receives step lifecycle events. Implementations persist them
// (durable runs) or accumulate them in memory (previews).
type Recorder interface {
	StepStarted(ctx context.Context, node *workflow.Node, seq int, input any) (stepID string, err error)
	StepCompleted(ctx context.Context, stepID string, output any, meta *workflow.StepMetadata) error
	StepFailed(ctx context.Context, stepID string, errMsg string) error
}

type Runner struct {
	executors   map[workflow.NodeType]nodes.Executor
	stepTimeout time.Duration
}

func NewRunner(providers *provider.Registry, stepTimeout time.Duration) *Runner {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	return &Runner{
		executors: map[workflow.NodeType]nodes.Executor{
			workflow.NodeTypeInput: &nodes.InputNode{},
			workflow.NodeTypeAI:    nodes.NewAINode(providers),
		},
		stepTimeout: stepTimeout,
	}
}

// Order returns the nodes the full-run path visits: ai nodes sorted by
// ascending canvas x position. Edges do not drive ordering yet — the linear
// position policy matches the builder's left-to-right layout. The dag
// package validates edges and computes the topological order the planned
// edge-driven scheduler will use.
func Order(wf *workflow.Workflow) []*workflow.Node {
	var ordered []*workflow.Node
	for i := range wf.Nodes {
		if wf.Nodes[i].Type == workflow.NodeTypeAI {
			ordered = append(ordered, &wf.Nodes[i])
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position.X < ordered[j].Position.X
	})
	return ordered
}

// SeedOutput derives the first step's input from the workflow's input node:
// its authored textInput wrapped as {"text": ...}. When the input node has
// no text, the caller-supplied seed is used instead.
func SeedOutput(wf *workflow.Workflow, seed any) any {
	in := wf.InputNode()
	if in != nil {
		data := workflow.DecodeInputData(in)
		if data.TextInput != "" {
			return map[string]any{"text": data.TextInput}
		}
	}
	if seed != nil {
		return seed
	}
	return map[string]any{}
}

// Execute runs the workflow's ai nodes in order, threading each node's
// output into the next node's input and reporting every step to rec. It
// returns the last node's output. The first failing node aborts the
// remaining sequence; already-recorded steps are left as an audit trail.
func (r *Runner) Execute(ctx context.Context, wf *workflow.Workflow, seed any, rec Recorder) (any, error) {
	ordered := Order(wf)
	if len(ordered) == 0 {
		return map[string]any{"message": "No AI nodes to execute"}, nil
	}

	current := SeedOutput(wf, seed)

	for seq, node := range ordered {
		// Cancellation is checked between steps, before any bookkeeping.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		output, err := r.runStep(ctx, node, seq+1, current, rec)
		if err != nil {
			return nil, err
		}
		current = output
	}
	return current, nil
}

// ExecuteStep runs exactly one node against the supplied input, with the
// same step bookkeeping as a full run. Used for interactive "test this
// node" actions.
func (r *Runner) ExecuteStep(ctx context.Context, wf *workflow.Workflow, nodeID string, input any, rec Recorder) (any, error) {
	node := wf.NodeByID(nodeID)
	if node == nil {
		return nil, fmt.Errorf("%w: node %s", workflow.ErrNotFound, nodeID)
	}
	if node.Type == workflow.NodeTypeInput && input == nil {
		input = SeedOutput(wf, nil)
	}
	return r.runStep(ctx, node, 1, input, rec)
}

func (r *Runner) runStep(ctx context.Context, node *workflow.Node, seq int, input any, rec Recorder) (any, error) {
	executor, ok := r.executors[node.Type]
	if !ok {
		return nil, fmt.Errorf("%w: no executor for node type %q", workflow.ErrValidation, node.Type)
	}

	stepID, err := rec.StepStarted(ctx, node, seq, input)
	if err != nil {
		return nil, fmt.Errorf("record step start: %w", err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.stepTimeout)
	result, execErr := executor.Execute(stepCtx, node, input)
	cancel()

	if execErr != nil {
		if errors.Is(execErr, context.DeadlineExceeded) {
			execErr = fmt.Errorf("%w: node %s after %s", workflow.ErrTimeout, node.ID, r.stepTimeout)
		}
		if recErr := rec.StepFailed(ctx, stepID, execErr.Error()); recErr != nil {
			return nil, fmt.Errorf("record step failure: %w", recErr)
		}
		return nil, execErr
	}

	if err := rec.StepCompleted(ctx, stepID, result.Output, result.Metadata); err != nil {
		return nil, fmt.Errorf("record step completion: %w", err)
	}
	return result.Output, nil
}
