package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS waypoint_runs (
    id         TEXT PRIMARY KEY,
    graph_id   TEXT NOT NULL,
    project_id TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL,
    data       JSONB NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS waypoint_approvals (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL,
    data       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_waypoint_runs_project      ON waypoint_runs(project_id);
CREATE INDEX IF NOT EXISTS idx_waypoint_runs_started      ON waypoint_runs(started_at);
CREATE INDEX IF NOT EXISTS idx_waypoint_approvals_project ON waypoint_approvals(project_id);
`

// CreateSchema creates the waypoint tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the waypoint tables.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS waypoint_runs, waypoint_approvals CASCADE;`)
	return err
}
