package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// CreateStep stores a new step row.
func (d *DB) CreateStep(ctx context.Context, s *workflow.Step) error {
	inputJSON, _ := json.Marshal(s.Input)
	outputJSON, _ := json.Marshal(s.Output)
	metadataJSON, _ := json.Marshal(s.Metadata)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO steps (id, run_id, owner_id, node_id, node_type, status, seq, input, output, error, metadata, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.RunID, s.OwnerID, s.NodeID, string(s.NodeType), string(s.Status), s.Seq,
		inputJSON, outputJSON, s.Error, metadataJSON, s.StartedAt, s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// UpdateStep updates an existing step row.
func (d *DB) UpdateStep(ctx context.Context, s *workflow.Step) error {
	outputJSON, _ := json.Marshal(s.Output)
	metadataJSON, _ := json.Marshal(s.Metadata)

	_, err := d.Pool.ExecContext(ctx,
		`UPDATE steps SET status = $1, output = $2, error = $3, metadata = $4, completed_at = $5
		 WHERE id = $6`,
		string(s.Status), outputJSON, s.Error, metadataJSON, s.CompletedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	return nil
}

// ListStepsByRun returns a run's steps in creation order.
func (d *DB) ListStepsByRun(ctx context.Context, runID string) ([]*workflow.Step, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, run_id, owner_id, node_id, node_type, status, seq, input, output, error, metadata, started_at, completed_at
		 FROM steps WHERE run_id = $1 ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Step
	for rows.Next() {
		s := &workflow.Step{}
		var nodeType, status string
		var inputJSON, outputJSON, metadataJSON []byte
		if err := rows.Scan(&s.ID, &s.RunID, &s.OwnerID, &s.NodeID, &nodeType, &status, &s.Seq,
			&inputJSON, &outputJSON, &s.Error, &metadataJSON, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		s.NodeType = workflow.NodeType(nodeType)
		s.Status = workflow.StepStatus(status)
		json.Unmarshal(inputJSON, &s.Input)
		json.Unmarshal(outputJSON, &s.Output)
		json.Unmarshal(metadataJSON, &s.Metadata)
		out = append(out, s)
	}
	return out, rows.Err()
}
