package preview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

type saveCounter struct {
	mu    sync.Mutex
	count int
	last  *workflow.Workflow
}

func (c *saveCounter) save(_ context.Context, wf *workflow.Workflow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	c.last = wf
	return nil
}

func (c *saveCounter) saves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func editedWorkflow(name string) *workflow.Workflow {
	return &workflow.Workflow{ID: "wf-1", Name: name, Nodes: []workflow.Node{
		{ID: "in", Type: workflow.NodeTypeInput, Data: map[string]any{}},
	}}
}

func TestAutosaverCoalescesBursts(t *testing.T) {
	counter := &saveCounter{}
	saver := NewAutosaver(counter.save, 30*time.Millisecond)
	defer saver.Close()

	// A burst of edits inside the debounce window.
	for i := 0; i < 10; i++ {
		saver.Notify(editedWorkflow("draft"))
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := counter.saves(); got != 1 {
		t.Fatalf("saves = %d, want 1 coalesced save", got)
	}
}

func TestAutosaverSkipsUnchangedSnapshot(t *testing.T) {
	counter := &saveCounter{}
	saver := NewAutosaver(counter.save, 10*time.Millisecond)
	defer saver.Close()

	saver.Notify(editedWorkflow("same"))
	time.Sleep(50 * time.Millisecond)
	saver.Notify(editedWorkflow("same"))
	time.Sleep(50 * time.Millisecond)

	if got := counter.saves(); got != 1 {
		t.Fatalf("saves = %d, identical snapshot must not save again", got)
	}

	saver.Notify(editedWorkflow("different"))
	time.Sleep(50 * time.Millisecond)
	if got := counter.saves(); got != 2 {
		t.Fatalf("saves = %d, changed snapshot must save", got)
	}
}

func TestAutosaverFlush(t *testing.T) {
	counter := &saveCounter{}
	saver := NewAutosaver(counter.save, time.Hour)
	defer saver.Close()

	saver.Notify(editedWorkflow("pending"))
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := counter.saves(); got != 1 {
		t.Fatalf("saves = %d, want immediate flush", got)
	}

	// Nothing pending: flush is a no-op.
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if got := counter.saves(); got != 1 {
		t.Fatalf("saves = %d after empty flush", got)
	}
}

func TestAutosaverCloseDropsPending(t *testing.T) {
	counter := &saveCounter{}
	saver := NewAutosaver(counter.save, 10*time.Millisecond)

	saver.Notify(editedWorkflow("doomed"))
	saver.Close()

	time.Sleep(50 * time.Millisecond)
	if got := counter.saves(); got != 0 {
		t.Fatalf("saves = %d, close must drop pending edits", got)
	}
}
