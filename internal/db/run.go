package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// CreateRun stores a new run row.
func (d *DB) CreateRun(ctx context.Context, r *workflow.Run) error {
	inputJSON, _ := json.Marshal(r.Input)
	outputJSON, _ := json.Marshal(r.Output)
	metadataJSON, _ := json.Marshal(r.Metadata)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO runs (id, workflow_id, owner_id, status, input, output, error, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.WorkflowID, r.OwnerID, string(r.Status),
		inputJSON, outputJSON, r.Error, metadataJSON, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run row by ID.
func (d *DB) GetRun(ctx context.Context, id string) (*workflow.Run, error) {
	r := &workflow.Run{}
	var status string
	var inputJSON, outputJSON, metadataJSON []byte

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, workflow_id, owner_id, status, input, output, error, metadata, created_at, updated_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.WorkflowID, &r.OwnerID, &status,
		&inputJSON, &outputJSON, &r.Error, &metadataJSON, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: run %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.Status = workflow.RunStatus(status)
	json.Unmarshal(inputJSON, &r.Input)
	json.Unmarshal(outputJSON, &r.Output)
	json.Unmarshal(metadataJSON, &r.Metadata)
	return r, nil
}

// UpdateRun updates an existing run row.
func (d *DB) UpdateRun(ctx context.Context, r *workflow.Run) error {
	outputJSON, _ := json.Marshal(r.Output)
	metadataJSON, _ := json.Marshal(r.Metadata)

	_, err := d.Pool.ExecContext(ctx,
		`UPDATE runs SET status = $1, output = $2, error = $3, metadata = $4, updated_at = $5
		 WHERE id = $6`,
		string(r.Status), outputJSON, r.Error, metadataJSON, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// ListRunsByWorkflow returns runs for a workflow with pagination, newest first.
func (d *DB) ListRunsByWorkflow(ctx context.Context, workflowID string, limit, offset int) ([]*workflow.Run, int, error) {
	var total int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE workflow_id = $1`, workflowID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	if limit <= 0 {
		limit = total
	}
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, workflow_id, owner_id, status, input, output, error, metadata, created_at, updated_at
		 FROM runs WHERE workflow_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		workflowID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Run
	for rows.Next() {
		r := &workflow.Run{}
		var status string
		var inputJSON, outputJSON, metadataJSON []byte
		if err := rows.Scan(&r.ID, &r.WorkflowID, &r.OwnerID, &status,
			&inputJSON, &outputJSON, &r.Error, &metadataJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		r.Status = workflow.RunStatus(status)
		json.Unmarshal(inputJSON, &r.Input)
		json.Unmarshal(outputJSON, &r.Output)
		json.Unmarshal(metadataJSON, &r.Metadata)
		out = append(out, r)
	}
	return out, total, rows.Err()
}
