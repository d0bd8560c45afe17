package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

func TestMemoryWorkflowRepositoryListByOwnerNewestFirst(t *testing.T) {
	repo := NewMemoryWorkflowRepository()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		repo.Create(ctx, &workflow.Workflow{
			ID:        fmt.Sprintf("wf-%d", i),
			Name:      fmt.Sprintf("wf %d", i),
			OwnerID:   "alice",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	repo.Create(ctx, &workflow.Workflow{ID: "wf-bob", OwnerID: "bob", CreatedAt: base})

	list, err := repo.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].ID != "wf-2" || list[2].ID != "wf-0" {
		t.Fatalf("order = [%s %s %s], want newest first", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestMemoryWorkflowRepositoryUpdateMissing(t *testing.T) {
	repo := NewMemoryWorkflowRepository()
	err := repo.Update(context.Background(), &workflow.Workflow{ID: "ghost"})
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryRunRepositoryFIFOEviction(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	for i := 0; i < maxRunRecords+5; i++ {
		repo.Create(ctx, &workflow.Run{ID: fmt.Sprintf("run-%d", i), WorkflowID: "wf"})
	}

	if _, err := repo.Get(ctx, "run-0"); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("oldest run should be evicted, got %v", err)
	}
	if _, err := repo.Get(ctx, fmt.Sprintf("run-%d", maxRunRecords+4)); err != nil {
		t.Fatalf("newest run missing: %v", err)
	}
}

func TestMemoryRunRepositoryPagination(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 7; i++ {
		repo.Create(ctx, &workflow.Run{
			ID:         fmt.Sprintf("run-%d", i),
			WorkflowID: "wf",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}
	repo.Create(ctx, &workflow.Run{ID: "other", WorkflowID: "other-wf", CreatedAt: base})

	page, total, err := repo.ListByWorkflow(ctx, "wf", 3, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 7 || len(page) != 3 {
		t.Fatalf("total = %d, page = %d", total, len(page))
	}
	if page[0].ID != "run-6" {
		t.Fatalf("first = %s, want newest", page[0].ID)
	}

	tail, _, err := repo.ListByWorkflow(ctx, "wf", 10, 5)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("tail = %d, want 2", len(tail))
	}

	beyond, total, err := repo.ListByWorkflow(ctx, "wf", 10, 100)
	if err != nil || len(beyond) != 0 || total != 7 {
		t.Fatalf("beyond = %v (total %d, err %v)", beyond, total, err)
	}
}

func TestMemoryStepRepositoryListByRunOrdered(t *testing.T) {
	repo := NewMemoryStepRepository()
	ctx := context.Background()

	// Created out of order on purpose.
	for _, seq := range []int{2, 1, 3} {
		repo.Create(ctx, &workflow.Step{
			ID:    fmt.Sprintf("step-%d", seq),
			RunID: "run-1",
			Seq:   seq,
		})
	}
	repo.Create(ctx, &workflow.Step{ID: "foreign", RunID: "run-2", Seq: 1})

	steps, err := repo.ListByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len = %d", len(steps))
	}
	for i, s := range steps {
		if s.Seq != i+1 {
			t.Fatalf("position %d has seq %d", i, s.Seq)
		}
	}
}

func TestMemoryAPIKeyRepositoryLookupAndTouch(t *testing.T) {
	repo := NewMemoryAPIKeyRepository()
	ctx := context.Background()

	key := &auth.APIKey{
		ID:       "key-1",
		OwnerID:  "alice",
		KeyHash:  auth.HashKey("ipk_abc"),
		IsActive: true,
	}
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByHash(ctx, auth.HashKey("ipk_abc"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "key-1" {
		t.Fatalf("id = %s", got.ID)
	}

	now := time.Now()
	if err := repo.TouchLastUsed(ctx, "key-1", now); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = repo.GetByHash(ctx, auth.HashKey("ipk_abc"))
	if got.LastUsedAt == nil || !got.LastUsedAt.Equal(now) {
		t.Fatalf("last used = %v", got.LastUsedAt)
	}

	if _, err := repo.GetByHash(ctx, auth.HashKey("ipk_wrong")); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
