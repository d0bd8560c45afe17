package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// DefaultAutosaveDelay is how long edits must be quiet before a save fires.
const DefaultAutosaveDelay = 800 * time.Millisecond

// SaveFunc persists a workflow snapshot.
type SaveFunc func(ctx context.Context, wf *workflow.Workflow) error

// Autosaver coalesces a stream of canvas edits into occasional saves. Each
// Notify restarts the debounce timer; when the timer fires, the pending
// snapshot is diffed against the last saved one and the save is skipped when
// nothing changed. Continuous drag or typing therefore produces one write,
// not hundreds.
type Autosaver struct {
	save  SaveFunc
	delay time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	pending   *workflow.Workflow
	lastSaved []byte
	closed    bool
}

func NewAutosaver(save SaveFunc, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{save: save, delay: delay}
}

// Notify records the latest edit state and restarts the debounce window.
func (a *Autosaver) Notify(wf *workflow.Workflow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.pending = wf
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

// Flush saves any pending snapshot immediately, skipping the debounce.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	wf := a.pending
	a.pending = nil
	a.mu.Unlock()

	if wf == nil {
		return nil
	}
	return a.persist(ctx, wf)
}

// Close stops the timer and drops any pending snapshot.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	wf := a.pending
	a.pending = nil
	a.timer = nil
	closed := a.closed
	a.mu.Unlock()

	if wf == nil || closed {
		return
	}
	if err := a.persist(context.Background(), wf); err != nil {
		slog.Warn("autosave failed", "workflow_id", wf.ID, "err", err)
	}
}

func (a *Autosaver) persist(ctx context.Context, wf *workflow.Workflow) error {
	snapshot := snapshotOf(wf)

	a.mu.Lock()
	unchanged := snapshot != nil && string(snapshot) == string(a.lastSaved)
	a.mu.Unlock()
	if unchanged {
		return nil
	}

	if err := a.save(ctx, wf); err != nil {
		return err
	}

	a.mu.Lock()
	a.lastSaved = snapshot
	a.mu.Unlock()
	return nil
}

// snapshotOf serializes the fields autosave watches: name, nodes, edges.
// Run history and timestamps are irrelevant to dirty-checking.
func snapshotOf(wf *workflow.Workflow) []byte {
	b, err := json.Marshal(struct {
		Name  string          `json:"name"`
		Nodes []workflow.Node `json:"nodes"`
		Edges []workflow.Edge `json:"edges"`
	}{wf.Name, wf.Nodes, wf.Edges})
	if err != nil {
		return nil
	}
	return b
}
