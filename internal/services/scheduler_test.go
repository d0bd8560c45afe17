package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inferpipe/inferpipe/internal/repository"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

func newSchedulerFixture(t *testing.T) (*SchedulerService, *fixture) {
	t.Helper()
	f := newFixture(&fakeProvider{reply: "scheduled"})
	return NewSchedulerService(repository.NewMemoryScheduleRepository(), f.runSvc), f
}

func TestSchedulerAddAndList(t *testing.T) {
	svc, f := newSchedulerFixture(t)
	wf := seedWorkflow(t, f, 1)
	ctx := context.Background()

	sched, err := svc.Add(ctx, alice, wf.ID, "*/5 * * * *", map[string]any{"text": "tick"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !sched.Enabled || sched.OwnerID != alice.Subject {
		t.Fatalf("schedule = %+v", sched)
	}

	mine, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("list = %d, want 1", len(mine))
	}

	theirs, _ := svc.List(ctx, bob)
	if len(theirs) != 0 {
		t.Fatalf("foreign list = %d, want 0", len(theirs))
	}
}

func TestSchedulerAddInvalidCronExpr(t *testing.T) {
	svc, f := newSchedulerFixture(t)
	wf := seedWorkflow(t, f, 1)

	_, err := svc.Add(context.Background(), alice, wf.ID, "not a cron expr", nil)
	if !errors.Is(err, workflow.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSchedulerAddUnknownWorkflow(t *testing.T) {
	svc, _ := newSchedulerFixture(t)

	_, err := svc.Add(context.Background(), alice, "wf-ghost", "* * * * *", nil)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSchedulerRemoveForeignSchedule(t *testing.T) {
	svc, f := newSchedulerFixture(t)
	wf := seedWorkflow(t, f, 1)
	ctx := context.Background()

	sched, err := svc.Add(ctx, alice, wf.ID, "* * * * *", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Remove(ctx, bob, sched.ID); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for foreign caller", err)
	}
	if err := svc.Remove(ctx, alice, sched.ID); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
}

func TestSchedulerFireExecutesRun(t *testing.T) {
	svc, f := newSchedulerFixture(t)
	wf := seedWorkflow(t, f, 1)
	ctx := context.Background()

	sched, err := svc.Add(ctx, alice, wf.ID, "* * * * *", map[string]any{"text": "tick"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	svc.fire(sched.ID)

	runs, total, err := f.runSvc.ListRuns(ctx, alice, wf.ID, 10, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if total != 1 || runs[0].Status != workflow.RunStatusCompleted {
		t.Fatalf("runs = %d, first = %+v", total, runs)
	}

	updated, _ := svc.schedules.Get(ctx, sched.ID)
	if updated.LastRunAt == nil {
		t.Fatal("LastRunAt not stamped after fire")
	}
}
