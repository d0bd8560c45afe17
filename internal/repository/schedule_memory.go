package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	memstore "github.com/inferpipe/inferpipe/internal/repository/memory"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// MemoryScheduleRepository is a thread-safe in-memory ScheduleRepository.
type MemoryScheduleRepository struct {
	store *memstore.Store[*workflow.Schedule]
}

func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{
		store: memstore.New(func(s *workflow.Schedule) string { return s.ID }),
	}
}

func (r *MemoryScheduleRepository) Create(ctx context.Context, s *workflow.Schedule) error {
	return r.store.Set(ctx, s)
}

func (r *MemoryScheduleRepository) Get(ctx context.Context, id string) (*workflow.Schedule, error) {
	s, err := r.store.Get(ctx, id)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: schedule %s", workflow.ErrNotFound, id)
	}
	return s, err
}

func (r *MemoryScheduleRepository) List(ctx context.Context) ([]*workflow.Schedule, error) {
	out, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryScheduleRepository) Update(ctx context.Context, s *workflow.Schedule) error {
	if err := r.store.Replace(ctx, s); err != nil {
		return fmt.Errorf("%w: schedule %s", workflow.ErrNotFound, s.ID)
	}
	return nil
}

func (r *MemoryScheduleRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: schedule %s", workflow.ErrNotFound, id)
	}
	return nil
}
