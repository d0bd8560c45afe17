package repository

import (
	"context"
	"log/slog"

	"github.com/inferpipe/inferpipe/internal/db"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// PersistentWorkflowRepository wraps a MemoryWorkflowRepository with a
// PostgreSQL backend. Writes go to both stores (DB failure is logged but
// non-fatal). Reads try memory first, falling back to the database.
type PersistentWorkflowRepository struct {
	mem *MemoryWorkflowRepository
	db  *db.DB
}

func NewPersistentWorkflowRepository(mem *MemoryWorkflowRepository, database *db.DB) *PersistentWorkflowRepository {
	return &PersistentWorkflowRepository{mem: mem, db: database}
}

func (r *PersistentWorkflowRepository) Create(ctx context.Context, wf *workflow.Workflow) error {
	_ = r.mem.Create(ctx, wf)
	if err := r.db.CreateWorkflow(ctx, wf); err != nil {
		slog.Warn("db create workflow failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentWorkflowRepository) Get(ctx context.Context, id string) (*workflow.Workflow, error) {
	wf, err := r.mem.Get(ctx, id)
	if err == nil {
		return wf, nil
	}

	dbWf, dbErr := r.db.GetWorkflow(ctx, id)
	if dbErr != nil {
		return nil, err // original ErrNotFound
	}

	// Cache for future lookups.
	_ = r.mem.Create(ctx, dbWf)
	return dbWf, nil
}

func (r *PersistentWorkflowRepository) ListByOwner(ctx context.Context, ownerID string) ([]*workflow.Workflow, error) {
	out, err := r.db.ListWorkflowsByOwner(ctx, ownerID)
	if err == nil {
		return out, nil
	}
	slog.Warn("db list workflows failed, falling back to in-memory", "err", err)
	return r.mem.ListByOwner(ctx, ownerID)
}

func (r *PersistentWorkflowRepository) Update(ctx context.Context, wf *workflow.Workflow) error {
	_ = r.mem.Update(ctx, wf)
	if err := r.db.UpdateWorkflow(ctx, wf); err != nil {
		slog.Warn("db update workflow failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentWorkflowRepository) Delete(ctx context.Context, id string) error {
	_ = r.mem.Delete(ctx, id)
	if err := r.db.DeleteWorkflow(ctx, id); err != nil {
		slog.Warn("db delete workflow failed", "err", err)
	}
	return nil
}
