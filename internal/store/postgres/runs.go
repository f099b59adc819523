package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/engine"
)

var _ engine.Store = (*Store)(nil)

// SaveRun upserts a run snapshot.
func (s *Store) SaveRun(ctx context.Context, run engine.Run) error {
	if run.ID == "" {
		return fmt.Errorf("postgres: run id is required")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("postgres: encode run %s: %w", run.ID, err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO waypoint_runs (id, graph_id, project_id, status, data, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status, data = EXCLUDED.data, updated_at = NOW()`,
		run.ID, run.Definition.ID, run.ProjectID, string(run.State.Status), data, run.State.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", run.ID, err)
	}
	logging.FromContext(ctx).Debug("postgres: run saved", "run", run.ID, "status", run.State.Status)
	return nil
}

// LoadRun fetches a run by id.
func (s *Store) LoadRun(ctx context.Context, id string) (engine.Run, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM waypoint_runs WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return engine.Run{}, fmt.Errorf("postgres: run %s: %w", id, workflow.ErrRunNotFound)
		}
		return engine.Run{}, fmt.Errorf("postgres: load run %s: %w", id, err)
	}
	var run engine.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return engine.Run{}, fmt.Errorf("postgres: decode run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by start time.
func (s *Store) ListRuns(ctx context.Context) ([]engine.Run, error) {
	rows, err := s.db.Query(ctx, `SELECT data FROM waypoint_runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query runs: %w", err)
	}
	defer rows.Close()

	var runs []engine.Run
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		var run engine.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("postgres: decode run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows runs: %w", err)
	}
	return runs, nil
}
