package services

import (
	"context"
	"sync"
	"sync/atomic"
)

// ConcurrencyLimits caps simultaneous run execution globally and per
// workflow. Zero values fall back to the defaults.
type ConcurrencyLimits struct {
	GlobalMax   int `yaml:"global_max"`
	PerWorkflow int `yaml:"per_workflow"`
}

// ConcurrencyLimiter bounds how many runs execute at once, using counting
// semaphores at two levels: one global, one per workflow id.
type ConcurrencyLimiter struct {
	global      chan struct{}
	perWorkflow map[string]chan struct{}
	mu          sync.Mutex
	limits      ConcurrencyLimits
	activeRuns  atomic.Int64
}

func NewConcurrencyLimiter(limits ConcurrencyLimits) *ConcurrencyLimiter {
	if limits.GlobalMax <= 0 {
		limits.GlobalMax = 10
	}
	if limits.PerWorkflow <= 0 {
		limits.PerWorkflow = 3
	}
	return &ConcurrencyLimiter{
		global:      make(chan struct{}, limits.GlobalMax),
		perWorkflow: make(map[string]chan struct{}),
		limits:      limits,
	}
}

// Acquire blocks until both a global and a per-workflow slot are available,
// or returns the context's error.
func (c *ConcurrencyLimiter) Acquire(ctx context.Context, workflowID string) error {
	select {
	case c.global <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wfCh := c.workflowChan(workflowID)
	select {
	case wfCh <- struct{}{}:
		c.activeRuns.Add(1)
		return nil
	case <-ctx.Done():
		// Give back the global slot we already hold.
		<-c.global
		return ctx.Err()
	}
}

// Release returns both slots.
func (c *ConcurrencyLimiter) Release(workflowID string) {
	c.activeRuns.Add(-1)

	c.mu.Lock()
	if ch, ok := c.perWorkflow[workflowID]; ok {
		select {
		case <-ch:
		default:
		}
	}
	c.mu.Unlock()

	select {
	case <-c.global:
	default:
	}
}

// ActiveRuns reports how many runs currently hold a slot.
func (c *ConcurrencyLimiter) ActiveRuns() int {
	return int(c.activeRuns.Load())
}

func (c *ConcurrencyLimiter) workflowChan(id string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.perWorkflow[id]
	if !ok {
		ch = make(chan struct{}, c.limits.PerWorkflow)
		c.perWorkflow[id] = ch
	}
	return ch
}
