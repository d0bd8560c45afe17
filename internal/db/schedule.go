package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/inferpipe/inferpipe/internal/workflow"
)

// CreateSchedule stores a new schedule row.
func (d *DB) CreateSchedule(ctx context.Context, s *workflow.Schedule) error {
	inputJSON, _ := json.Marshal(s.Input)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO schedules (id, workflow_id, owner_id, cron_expr, input, enabled, last_run_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.WorkflowID, s.OwnerID, s.CronExpr, inputJSON, s.Enabled, s.LastRunAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (d *DB) GetSchedule(ctx context.Context, id string) (*workflow.Schedule, error) {
	s := &workflow.Schedule{}
	var inputJSON []byte

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, workflow_id, owner_id, cron_expr, input, enabled, last_run_at, created_at
		 FROM schedules WHERE id = $1`, id,
	).Scan(&s.ID, &s.WorkflowID, &s.OwnerID, &s.CronExpr, &inputJSON, &s.Enabled, &s.LastRunAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: schedule %s", workflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	json.Unmarshal(inputJSON, &s.Input)
	return s, nil
}

// ListSchedules returns all schedules.
func (d *DB) ListSchedules(ctx context.Context) ([]*workflow.Schedule, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, workflow_id, owner_id, cron_expr, input, enabled, last_run_at, created_at
		 FROM schedules ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Schedule
	for rows.Next() {
		s := &workflow.Schedule{}
		var inputJSON []byte
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.OwnerID, &s.CronExpr, &inputJSON, &s.Enabled, &s.LastRunAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		json.Unmarshal(inputJSON, &s.Input)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSchedule updates an existing schedule row.
func (d *DB) UpdateSchedule(ctx context.Context, s *workflow.Schedule) error {
	inputJSON, _ := json.Marshal(s.Input)

	_, err := d.Pool.ExecContext(ctx,
		`UPDATE schedules SET cron_expr = $1, input = $2, enabled = $3, last_run_at = $4 WHERE id = $5`,
		s.CronExpr, inputJSON, s.Enabled, s.LastRunAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// DeleteSchedule removes a schedule row.
func (d *DB) DeleteSchedule(ctx context.Context, id string) error {
	_, err := d.Pool.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
