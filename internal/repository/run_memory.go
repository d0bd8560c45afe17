package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

const maxRunRecords = 1000

// MemoryRunRepository stores runs in memory with FIFO eviction so a
// long-lived dev server doesn't grow without bound.
type MemoryRunRepository struct {
	mu      sync.RWMutex
	records map[string]*workflow.Run
	order   []string // insertion order for FIFO eviction
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{records: make(map[string]*workflow.Run)}
}

func (r *MemoryRunRepository) Create(_ context.Context, run *workflow.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) >= maxRunRecords {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.records, oldest)
	}

	r.records[run.ID] = run
	r.order = append(r.order, run.ID)
	return nil
}

func (r *MemoryRunRepository) Get(_ context.Context, id string) (*workflow.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", workflow.ErrNotFound, id)
	}
	return run, nil
}

func (r *MemoryRunRepository) Update(_ context.Context, run *workflow.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[run.ID]; !ok {
		return fmt.Errorf("%w: run %s", workflow.ErrNotFound, run.ID)
	}
	r.records[run.ID] = run
	return nil
}

func (r *MemoryRunRepository) ListByWorkflow(_ context.Context, workflowID string, limit, offset int) ([]*workflow.Run, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []*workflow.Run
	for _, run := range r.records {
		if run.WorkflowID == workflowID {
			filtered = append(filtered, run)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}
