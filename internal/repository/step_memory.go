package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// MemoryStepRepository stores steps in memory, indexed by run.
type MemoryStepRepository struct {
	mu    sync.RWMutex
	steps map[string]*workflow.Step
	byRun map[string][]string // runID -> step IDs in creation order
}

func NewMemoryStepRepository() *MemoryStepRepository {
	return &MemoryStepRepository{
		steps: make(map[string]*workflow.Step),
		byRun: make(map[string][]string),
	}
}

func (r *MemoryStepRepository) Create(_ context.Context, step *workflow.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps[step.ID] = step
	r.byRun[step.RunID] = append(r.byRun[step.RunID], step.ID)
	return nil
}

func (r *MemoryStepRepository) Update(_ context.Context, step *workflow.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.steps[step.ID]; !ok {
		return fmt.Errorf("%w: step %s", workflow.ErrNotFound, step.ID)
	}
	r.steps[step.ID] = step
	return nil
}

func (r *MemoryStepRepository) ListByRun(_ context.Context, runID string) ([]*workflow.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byRun[runID]
	out := make([]*workflow.Step, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.steps[id]; ok {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
