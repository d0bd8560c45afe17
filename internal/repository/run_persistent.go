package repository

import (
	"context"
	"log/slog"

	"github.com/inferpipe/inferpipe/internal/db"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// PersistentRunRepository wraps a MemoryRunRepository with a PostgreSQL
// backend, same write-through policy as workflows.
type PersistentRunRepository struct {
	mem *MemoryRunRepository
	db  *db.DB
}

func NewPersistentRunRepository(mem *MemoryRunRepository, database *db.DB) *PersistentRunRepository {
	return &PersistentRunRepository{mem: mem, db: database}
}

func (r *PersistentRunRepository) Create(ctx context.Context, run *workflow.Run) error {
	_ = r.mem.Create(ctx, run)
	if err := r.db.CreateRun(ctx, run); err != nil {
		slog.Warn("db create run failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentRunRepository) Get(ctx context.Context, id string) (*workflow.Run, error) {
	run, err := r.mem.Get(ctx, id)
	if err == nil {
		return run, nil
	}

	dbRun, dbErr := r.db.GetRun(ctx, id)
	if dbErr != nil {
		return nil, err
	}

	_ = r.mem.Create(ctx, dbRun)
	return dbRun, nil
}

func (r *PersistentRunRepository) Update(ctx context.Context, run *workflow.Run) error {
	_ = r.mem.Update(ctx, run)
	if err := r.db.UpdateRun(ctx, run); err != nil {
		slog.Warn("db update run failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentRunRepository) ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]*workflow.Run, int, error) {
	runs, total, err := r.db.ListRunsByWorkflow(ctx, workflowID, limit, offset)
	if err == nil {
		return runs, total, nil
	}
	slog.Warn("db list runs failed, falling back to in-memory", "err", err)
	return r.mem.ListByWorkflow(ctx, workflowID, limit, offset)
}
