package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// scheduledRunTimeout bounds a cron-triggered run, which has no HTTP caller
// whose disconnect would cancel it.
const scheduledRunTimeout = 10 * time.Minute

// SchedulerService triggers workflow runs on cron expressions. It wraps
// robfig/cron and reuses the RunService path, so scheduled runs get the same
// concurrency limits and bookkeeping as API-triggered ones.
type SchedulerService struct {
	cron      *cron.Cron
	schedules repository.ScheduleRepository
	runs      *RunService
	entryMap  map[string]cron.EntryID // schedule ID -> cron entry
	mu        sync.Mutex
}

func NewSchedulerService(schedules repository.ScheduleRepository, runs *RunService) *SchedulerService {
	return &SchedulerService{
		cron:      cron.New(),
		schedules: schedules,
		runs:      runs,
		entryMap:  make(map[string]cron.EntryID),
	}
}

// Start loads enabled schedules and begins the cron loop.
func (s *SchedulerService) Start(ctx context.Context) error {
	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	for _, sched := range schedules {
		if !sched.Enabled {
			continue
		}
		if err := s.register(sched); err != nil {
			slog.Warn("scheduler: failed to register schedule", "id", sched.ID, "err", err)
		}
	}
	s.cron.Start()
	slog.Info("scheduler: started", "schedules", len(schedules))
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler: stopped")
}

// Add validates the cron expression, stores the schedule, and registers its job.
func (s *SchedulerService) Add(ctx context.Context, identity *auth.Identity, workflowID, cronExpr string, input any) (*workflow.Schedule, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("%w: invalid cron expression %q: %v", workflow.ErrValidation, cronExpr, err)
	}
	if _, err := s.runs.ownedWorkflow(ctx, identity, workflowID); err != nil {
		return nil, err
	}

	sched := &workflow.Schedule{
		ID:         workflow.NewID("sched"),
		WorkflowID: workflowID,
		OwnerID:    identity.Subject,
		CronExpr:   cronExpr,
		Input:      input,
		Enabled:    true,
		CreatedAt:  time.Now(),
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	if err := s.register(sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// Remove deletes a schedule and unhooks its cron job.
func (s *SchedulerService) Remove(ctx context.Context, identity *auth.Identity, id string) error {
	sched, err := s.schedules.Get(ctx, id)
	if err != nil {
		return err
	}
	if sched.OwnerID != identity.Subject {
		return fmt.Errorf("%w: schedule %s", workflow.ErrNotFound, id)
	}

	s.mu.Lock()
	if entryID, ok := s.entryMap[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entryMap, id)
	}
	s.mu.Unlock()

	return s.schedules.Delete(ctx, id)
}

// List returns the caller's schedules.
func (s *SchedulerService) List(ctx context.Context, identity *auth.Identity) ([]*workflow.Schedule, error) {
	all, err := s.schedules.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*workflow.Schedule
	for _, sched := range all {
		if sched.OwnerID == identity.Subject {
			out = append(out, sched)
		}
	}
	return out, nil
}

func (s *SchedulerService) register(sched *workflow.Schedule) error {
	entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
		s.fire(sched.ID)
	})
	if err != nil {
		return fmt.Errorf("register cron job: %w", err)
	}
	s.mu.Lock()
	s.entryMap[sched.ID] = entryID
	s.mu.Unlock()
	return nil
}

// fire executes one scheduled run. The schedule is re-read so edits between
// ticks take effect, and LastRunAt is stamped regardless of the outcome.
func (s *SchedulerService) fire(scheduleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		slog.Warn("scheduler: schedule lookup failed", "id", scheduleID, "err", err)
		return
	}
	if !sched.Enabled {
		return
	}

	identity := &auth.Identity{Subject: sched.OwnerID}
	run, err := s.runs.Execute(ctx, identity, sched.WorkflowID, sched.Input)
	if err != nil {
		slog.Warn("scheduler: scheduled run failed",
			"schedule_id", sched.ID, "workflow_id", sched.WorkflowID, "err", err)
	} else {
		slog.Info("scheduler: scheduled run completed",
			"schedule_id", sched.ID, "run_id", run.ID)
	}

	now := time.Now()
	sched.LastRunAt = &now
	if err := s.schedules.Update(ctx, sched); err != nil {
		slog.Warn("scheduler: failed to stamp last run", "id", sched.ID, "err", err)
	}
}
