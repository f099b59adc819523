package approval

import (
	"time"

	"github.com/kingrea/waypoint/internal/workflow"
)

// Status is the lifecycle state of an approval request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request packages a graph, every scored path, and an optional
// recommendation for an accept-or-reject decision.
type Request struct {
	ID          string                   `json:"id" yaml:"id"`
	ProjectID   string                   `json:"project_id" yaml:"project_id"`
	Phase       string                   `json:"phase" yaml:"phase"`
	Domain      string                   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Definition  workflow.GraphDefinition `json:"definition" yaml:"definition"`
	Paths       []workflow.Path          `json:"paths" yaml:"paths"`
	Recommended *workflow.Path           `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	Strategy    workflow.StrategyName    `json:"strategy" yaml:"strategy"`
	CreatedAt   time.Time                `json:"created_at" yaml:"created_at"`
	RequestedBy string                   `json:"requested_by" yaml:"requested_by"`
	Status      Status                   `json:"status" yaml:"status"`

	ChosenPathID string     `json:"chosen_path_id,omitempty" yaml:"chosen_path_id,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
	ResolvedBy   string     `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`
	Reason       string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Path returns the scored path with the given id.
func (r Request) Path(id string) (workflow.Path, bool) {
	for _, path := range r.Paths {
		if path.ID == id {
			return path, true
		}
	}
	return workflow.Path{}, false
}

// ChosenPath returns the path bound at approval time.
func (r Request) ChosenPath() (workflow.Path, bool) {
	if r.Status != StatusApproved || r.ChosenPathID == "" {
		return workflow.Path{}, false
	}
	return r.Path(r.ChosenPathID)
}

// Clone returns a deep copy so registry callers cannot mutate stored state.
func (r Request) Clone() Request {
	clone := r
	clone.Definition = r.Definition.Clone()
	if len(r.Paths) > 0 {
		clone.Paths = make([]workflow.Path, len(r.Paths))
		for i, path := range r.Paths {
			clone.Paths[i] = path.Clone()
		}
	}
	if r.Recommended != nil {
		rec := r.Recommended.Clone()
		clone.Recommended = &rec
	}
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		clone.ResolvedAt = &at
	}
	return clone
}
