// Package workflow defines the persisted domain model: workflow graphs,
// execution runs, and per-node step records.
package workflow

import "time"

type NodeType string

const (
	NodeTypeInput NodeType = "input"
	NodeTypeAI    NodeType = "ai"
)

type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusPublished WorkflowStatus = "published"
	WorkflowStatusArchived  WorkflowStatus = "archived"
)

// Workflow is the persisted shape of a builder graph. Nodes and edges are
// replaced whole on every save; Version increments on each update and is
// checked to reject stale writes.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	Variables   []Variable     `json:"variables,omitempty"`
	Version     int            `json:"version"`
	OwnerID     string         `json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Node is a unit of work on the canvas. Data is the node-type-specific
// configuration blob; it is decoded at the execution boundary (see
// DecodeInputData / DecodeAIData), never probed ad hoc.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a declared connection between two nodes. Edges are validated
// against the node set but do not drive execution order (see engine).
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

type Variable struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue any    `json:"defaultValue,omitempty"`
}

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one end-to-end execution attempt of a workflow. Terminal states
// are completed and failed; a run is never reopened.
type Run struct {
	ID         string      `json:"id"`
	WorkflowID string      `json:"workflow_id"`
	OwnerID    string      `json:"owner_id"`
	Status     RunStatus   `json:"status"`
	Input      any         `json:"input"`
	Output     any         `json:"output,omitempty"`
	Error      *string     `json:"error,omitempty"`
	Metadata   RunMetadata `json:"metadata"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type RunMetadata struct {
	TotalSteps     int     `json:"total_steps"`
	CompletedSteps int     `json:"completed_steps"`
	Cost           float64 `json:"cost,omitempty"`
	DurationMillis int64   `json:"duration,omitempty"`
}

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// Step is one node invocation within a run, append-only and ordered by
// creation sequence. Its input is the previous step's output (or the seed
// input for the first step).
type Step struct {
	ID          string        `json:"id"`
	RunID       string        `json:"run_id"`
	OwnerID     string        `json:"owner_id"`
	NodeID      string        `json:"node_id"`
	NodeType    NodeType      `json:"node_type"`
	Status      StepStatus    `json:"status"`
	Seq         int           `json:"seq"`
	Input       any           `json:"input"`
	Output      any           `json:"output,omitempty"`
	Error       *string       `json:"error,omitempty"`
	Metadata    *StepMetadata `json:"metadata,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

type StepMetadata struct {
	Model          string      `json:"model,omitempty"`
	Tokens         *TokenUsage `json:"tokens,omitempty"`
	Cost           float64     `json:"cost,omitempty"`
	DurationMillis int64       `json:"duration,omitempty"`
}

type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Schedule triggers an owned workflow on a cron expression with a fixed input.
type Schedule struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	OwnerID    string     `json:"owner_id"`
	CronExpr   string     `json:"cron_expr"`
	Input      any        `json:"input"`
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// InputNode returns the workflow's first input node, or nil.
func (w *Workflow) InputNode() *Node {
	for i := range w.Nodes {
		if w.Nodes[i].Type == NodeTypeInput {
			return &w.Nodes[i]
		}
	}
	return nil
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}
