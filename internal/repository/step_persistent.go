package repository

import (
	"context"
	"log/slog"

	"github.com/inferpipe/inferpipe/internal/db"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// PersistentStepRepository wraps a MemoryStepRepository with a PostgreSQL
// backend.
type PersistentStepRepository struct {
	mem *MemoryStepRepository
	db  *db.DB
}

func NewPersistentStepRepository(mem *MemoryStepRepository, database *db.DB) *PersistentStepRepository {
	return &PersistentStepRepository{mem: mem, db: database}
}

func (r *PersistentStepRepository) Create(ctx context.Context, step *workflow.Step) error {
	_ = r.mem.Create(ctx, step)
	if err := r.db.CreateStep(ctx, step); err != nil {
		slog.Warn("db create step failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentStepRepository) Update(ctx context.Context, step *workflow.Step) error {
	_ = r.mem.Update(ctx, step)
	if err := r.db.UpdateStep(ctx, step); err != nil {
		slog.Warn("db update step failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentStepRepository) ListByRun(ctx context.Context, runID string) ([]*workflow.Step, error) {
	steps, err := r.db.ListStepsByRun(ctx, runID)
	if err == nil && len(steps) > 0 {
		return steps, nil
	}
	if err != nil {
		slog.Warn("db list steps failed, falling back to in-memory", "err", err)
	}
	return r.mem.ListByRun(ctx, runID)
}
