package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
)

// SaveApproval archives an approval request, replacing any earlier copy.
func (s *Store) SaveApproval(ctx context.Context, req approval.Request) error {
	if req.ID == "" {
		return fmt.Errorf("postgres: approval id is required")
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("postgres: encode approval %s: %w", req.ID, err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO waypoint_approvals (id, project_id, status, data, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, data = EXCLUDED.data`,
		req.ID, req.ProjectID, string(req.Status), data, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save approval %s: %w", req.ID, err)
	}
	return nil
}

// LoadApproval fetches an archived approval request.
func (s *Store) LoadApproval(ctx context.Context, id string) (approval.Request, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM waypoint_approvals WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return approval.Request{}, fmt.Errorf("postgres: approval %s: %w", id, workflow.ErrRequestNotFound)
		}
		return approval.Request{}, fmt.Errorf("postgres: load approval %s: %w", id, err)
	}
	var req approval.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return approval.Request{}, fmt.Errorf("postgres: decode approval %s: %w", id, err)
	}
	return req, nil
}
