package repository

import (
	"context"
	"log/slog"

	"github.com/inferpipe/inferpipe/internal/db"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// PersistentScheduleRepository wraps a MemoryScheduleRepository with a
// PostgreSQL backend.
type PersistentScheduleRepository struct {
	mem *MemoryScheduleRepository
	db  *db.DB
}

func NewPersistentScheduleRepository(mem *MemoryScheduleRepository, database *db.DB) *PersistentScheduleRepository {
	return &PersistentScheduleRepository{mem: mem, db: database}
}

func (r *PersistentScheduleRepository) Create(ctx context.Context, s *workflow.Schedule) error {
	_ = r.mem.Create(ctx, s)
	if err := r.db.CreateSchedule(ctx, s); err != nil {
		slog.Warn("db create schedule failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentScheduleRepository) Get(ctx context.Context, id string) (*workflow.Schedule, error) {
	s, err := r.mem.Get(ctx, id)
	if err == nil {
		return s, nil
	}
	dbSched, dbErr := r.db.GetSchedule(ctx, id)
	if dbErr != nil {
		return nil, err
	}
	_ = r.mem.Create(ctx, dbSched)
	return dbSched, nil
}

func (r *PersistentScheduleRepository) List(ctx context.Context) ([]*workflow.Schedule, error) {
	out, err := r.db.ListSchedules(ctx)
	if err == nil {
		return out, nil
	}
	slog.Warn("db list schedules failed, falling back to in-memory", "err", err)
	return r.mem.List(ctx)
}

func (r *PersistentScheduleRepository) Update(ctx context.Context, s *workflow.Schedule) error {
	_ = r.mem.Update(ctx, s)
	if err := r.db.UpdateSchedule(ctx, s); err != nil {
		slog.Warn("db update schedule failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentScheduleRepository) Delete(ctx context.Context, id string) error {
	_ = r.mem.Delete(ctx, id)
	if err := r.db.DeleteSchedule(ctx, id); err != nil {
		slog.Warn("db delete schedule failed", "err", err)
	}
	return nil
}
