// Package preview gives the editor an in-process execution mirror: it runs a
// workflow through the same engine as durable runs but keeps every step
// record in local session state, so an author can test a pipeline before
// saving without writing run history. It also houses the debounced autosaver
// the editor uses to persist canvas edits.
package preview

import (
	"context"
	"sync"

	"github.com/inferpipe/inferpipe/internal/engine"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// StepRecord is one panel in the editor's step-by-step view. Step numbers
// start at 1 with the synthesized input step.
type StepRecord struct {
	ID     string  `json:"id"`
	NodeID string  `json:"nodeId"`
	Step   int     `json:"step"`
	Input  any     `json:"input,omitempty"`
	Output any     `json:"output,omitempty"`
	Error  *string `json:"error,omitempty"`
}

// Session is one editor's execution context. Each open editor owns its own
// Session; nothing here is shared or persisted.
type Session struct {
	runner *engine.Runner

	mu    sync.Mutex
	steps []StepRecord
}

func NewSession(runner *engine.Runner) *Session {
	return &Session{runner: runner}
}

// Steps returns a copy of the records accumulated by the last Run.
func (s *Session) Steps() []StepRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StepRecord, len(s.steps))
	copy(out, s.steps)
	return out
}

// Run executes the workflow's ai nodes in canvas order, recording every step
// locally. The input node becomes a synthesized step 1 carrying its authored
// text. A failing node records its error and stops the sequence; earlier
// records stay visible. The returned value aggregates all step records, the
// shape the editor renders.
func (s *Session) Run(ctx context.Context, wf *workflow.Workflow, seed any) (map[string]any, error) {
	s.mu.Lock()
	s.steps = s.steps[:0]
	s.mu.Unlock()

	rec := &sessionRecorder{session: s}

	// Step 1 is the input node itself so the author sees the seed.
	seedOut := engine.SeedOutput(wf, seed)
	if in := wf.InputNode(); in != nil {
		s.append(StepRecord{
			ID:     workflow.NewID("step"),
			NodeID: in.ID,
			Step:   1,
			Output: seedOut,
		})
		rec.offset = 1
	}

	_, err := s.runner.Execute(ctx, wf, seed, rec)
	if err != nil {
		// The failing step already carries the error; the session result is
		// the partial record list, not a hard failure.
		return map[string]any{"steps": s.Steps()}, err
	}
	return map[string]any{"steps": s.Steps()}, nil
}

// RunNode executes a single node against the supplied input, recording one step.
func (s *Session) RunNode(ctx context.Context, wf *workflow.Workflow, nodeID string, input any) (any, error) {
	s.mu.Lock()
	s.steps = s.steps[:0]
	s.mu.Unlock()

	return s.runner.ExecuteStep(ctx, wf, nodeID, input, &sessionRecorder{session: s})
}

func (s *Session) append(r StepRecord) {
	s.mu.Lock()
	s.steps = append(s.steps, r)
	s.mu.Unlock()
}

func (s *Session) patch(stepID string, fn func(*StepRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].ID == stepID {
			fn(&s.steps[i])
			return
		}
	}
}

// sessionRecorder satisfies engine.Recorder with purely local state. The
// offset shifts engine step numbers past the synthesized input step.
type sessionRecorder struct {
	session *Session
	offset  int
}

func (r *sessionRecorder) StepStarted(_ context.Context, node *workflow.Node, seq int, input any) (string, error) {
	rec := StepRecord{
		ID:     workflow.NewID("step"),
		NodeID: node.ID,
		Step:   seq + r.offset,
		Input:  input,
	}
	r.session.append(rec)
	return rec.ID, nil
}

func (r *sessionRecorder) StepCompleted(_ context.Context, stepID string, output any, _ *workflow.StepMetadata) error {
	r.session.patch(stepID, func(rec *StepRecord) {
		rec.Output = output
	})
	return nil
}

func (r *sessionRecorder) StepFailed(_ context.Context, stepID string, errMsg string) error {
	r.session.patch(stepID, func(rec *StepRecord) {
		rec.Error = &errMsg
	})
	return nil
}
