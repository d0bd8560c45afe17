// Package repository defines storage interfaces for domain entities so
// callers don't need to know whether storage is in-memory, PostgreSQL, or a
// write-through mix of both.
package repository

import (
	"context"
	"time"

	"github.com/inferpipe/inferpipe/internal/auth"
	"github.com/inferpipe/inferpipe/internal/workflow"
)

// WorkflowRepository abstracts workflow persistence. Records are stored
// whole: node and edge arrays are replaced on every update.
type WorkflowRepository interface {
	Create(ctx context.Context, wf *workflow.Workflow) error
	Get(ctx context.Context, id string) (*workflow.Workflow, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*workflow.Workflow, error)
	Update(ctx context.Context, wf *workflow.Workflow) error
	Delete(ctx context.Context, id string) error
}

// RunRepository abstracts run persistence with indexed lookup by workflow,
// newest first.
type RunRepository interface {
	Create(ctx context.Context, run *workflow.Run) error
	Get(ctx context.Context, id string) (*workflow.Run, error)
	Update(ctx context.Context, run *workflow.Run) error
	ListByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]*workflow.Run, int, error)
}

// StepRepository abstracts step persistence with indexed lookup by run,
// ascending creation order.
type StepRepository interface {
	Create(ctx context.Context, step *workflow.Step) error
	Update(ctx context.Context, step *workflow.Step) error
	ListByRun(ctx context.Context, runID string) ([]*workflow.Step, error)
}

// APIKeyRepository stores hashed API keys. It satisfies auth.KeyStore.
type APIKeyRepository interface {
	Create(ctx context.Context, key *auth.APIKey) error
	GetByHash(ctx context.Context, hash string) (*auth.APIKey, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// ScheduleRepository stores cron schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, s *workflow.Schedule) error
	Get(ctx context.Context, id string) (*workflow.Schedule, error)
	List(ctx context.Context) ([]*workflow.Schedule, error)
	Update(ctx context.Context, s *workflow.Schedule) error
	Delete(ctx context.Context, id string) error
}
