package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// CreateWorkflow stores a new workflow row.
func (d *DB) CreateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	nodesJSON, _ := json.Marshal(wf.Nodes)
	edgesJSON, _ := json.Marshal(wf.Edges)
	variablesJSON, _ := json.Marshal(wf.Variables)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO workflows (id, owner_id, name, description, status, version, nodes, edges, variables, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		wf.ID, wf.OwnerID, wf.Name, wf.Description, string(wf.Status), wf.Version,
		nodesJSON, edgesJSON, variablesJSON, wf.CreatedAt, wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by ID.
func (d *DB) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	wf := &workflow.Workflow{}
	var status string
	var nodesJSON, edgesJSON, variablesJSON []byte

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, owner_id, name, description, status, version, nodes, edges, variables, created_at, updated_at
		 FROM workflows WHERE id = $1`, id,
	).Scan(&wf.ID, &wf.OwnerID, &wf.Name, &wf.Description, &status, &wf.Version,
		&nodesJSON, &edgesJSON, &variablesJSON, &wf.CreatedAt, &wf.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: workflow %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	wf.Status = workflow.WorkflowStatus(status)
	json.Unmarshal(nodesJSON, &wf.Nodes)
	json.Unmarshal(edgesJSON, &wf.Edges)
	json.Unmarshal(variablesJSON, &wf.Variables)
	return wf, nil
}

// ListWorkflowsByOwner returns all workflows for an owner, newest first.
func (d *DB) ListWorkflowsByOwner(ctx context.Context, ownerID string) ([]*workflow.Workflow, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, owner_id, name, description, status, version, nodes, edges, variables, created_at, updated_at
		 FROM workflows WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Workflow
	for rows.Next() {
		wf := &workflow.Workflow{}
		var status string
		var nodesJSON, edgesJSON, variablesJSON []byte
		if err := rows.Scan(&wf.ID, &wf.OwnerID, &wf.Name, &wf.Description, &status, &wf.Version,
			&nodesJSON, &edgesJSON, &variablesJSON, &wf.CreatedAt, &wf.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		wf.Status = workflow.WorkflowStatus(status)
		json.Unmarshal(nodesJSON, &wf.Nodes)
		json.Unmarshal(edgesJSON, &wf.Edges)
		json.Unmarshal(variablesJSON, &wf.Variables)
		out = append(out, wf)
	}
	return out, rows.Err()
}

// UpdateWorkflow replaces a workflow row.
func (d *DB) UpdateWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	nodesJSON, _ := json.Marshal(wf.Nodes)
	edgesJSON, _ := json.Marshal(wf.Edges)
	variablesJSON, _ := json.Marshal(wf.Variables)

	_, err := d.Pool.ExecContext(ctx,
		`UPDATE workflows SET name = $1, description = $2, status = $3, version = $4, nodes = $5, edges = $6, variables = $7, updated_at = $8
		 WHERE id = $9`,
		wf.Name, wf.Description, string(wf.Status), wf.Version,
		nodesJSON, edgesJSON, variablesJSON, wf.UpdatedAt, wf.ID,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return nil
}

// DeleteWorkflow removes a workflow row (runs and steps cascade).
func (d *DB) DeleteWorkflow(ctx context.Context, id string) error {
	_, err := d.Pool.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}
