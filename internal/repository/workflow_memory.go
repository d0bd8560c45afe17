package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	memstore "github.com/inferpipe/inferpipe/internal/repository/memory"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// MemoryWorkflowRepository is a thread-safe in-memory WorkflowRepository.
type MemoryWorkflowRepository struct {
	store *memstore.Store[*workflow.Workflow]
}

func NewMemoryWorkflowRepository() *MemoryWorkflowRepository {
	return &MemoryWorkflowRepository{
		store: memstore.New(func(w *workflow.Workflow) string { return w.ID }),
	}
}

func (r *MemoryWorkflowRepository) Create(ctx context.Context, wf *workflow.Workflow) error {
	return r.store.Set(ctx, wf)
}

func (r *MemoryWorkflowRepository) Get(ctx context.Context, id string) (*workflow.Workflow, error) {
	wf, err := r.store.Get(ctx, id)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, id)
	}
	return wf, err
}

func (r *MemoryWorkflowRepository) ListByOwner(ctx context.Context, ownerID string) ([]*workflow.Workflow, error) {
	out, err := r.store.Filter(ctx, func(w *workflow.Workflow) bool { return w.OwnerID == ownerID })
	if err != nil {
		return nil, err
	}
	// Newest first, matching the dashboard listing.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryWorkflowRepository) Update(ctx context.Context, wf *workflow.Workflow) error {
	if err := r.store.Replace(ctx, wf); err != nil {
		return fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, wf.ID)
	}
	return nil
}

func (r *MemoryWorkflowRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, id)
	}
	return nil
}
