package engine

import (
	"github.com/kingrea/waypoint/internal/workflow"
)

// Run is the persisted snapshot of one execution: the definition and path
// it was approved against, plus the cursor state.
type Run struct {
	ID         string                   `json:"id"`
	RequestID  string                   `json:"request_id"`
	ProjectID  string                   `json:"project_id,omitempty"`
	ApprovedBy string                   `json:"approved_by,omitempty"`
	Definition workflow.GraphDefinition `json:"definition"`
	Path       workflow.Path            `json:"path"`
	State      workflow.ExecutionState  `json:"state"`
}

// Summary is a compact view of a run for listings.
type Summary struct {
	ID        string                   `json:"id"`
	GraphID   string                   `json:"graph_id"`
	ProjectID string                   `json:"project_id,omitempty"`
	Current   string                   `json:"current_node"`
	Status    workflow.ExecutionStatus `json:"status"`
	Progress  float64                  `json:"progress"`
}

// Summary condenses the run. Progress is the share of path nodes already
// completed, in [0,1].
func (r Run) Summary() Summary {
	progress := 0.0
	if r.State.Status == workflow.ExecutionComplete {
		progress = 1
	} else if n := len(r.Path.Nodes); n > 0 {
		progress = float64(len(r.State.CompletedNodes)) / float64(n)
	}
	return Summary{
		ID:        r.ID,
		GraphID:   r.Definition.ID,
		ProjectID: r.ProjectID,
		Current:   r.State.CurrentNode,
		Status:    r.State.Status,
		Progress:  progress,
	}
}

// Clone returns a deep copy of the run.
func (r Run) Clone() Run {
	clone := r
	clone.Definition = r.Definition.Clone()
	clone.Path = r.Path.Clone()
	clone.State = r.State.Clone()
	return clone
}
