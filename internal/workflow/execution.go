package workflow

import "time"

// ExecutionStatus is the lifecycle state of a run along an approved path.
type ExecutionStatus string

const (
	ExecutionActive    ExecutionStatus = "active"
	ExecutionComplete  ExecutionStatus = "complete"
	ExecutionAbandoned ExecutionStatus = "abandoned"
)

// ExecutionState is the cursor of one run walking an approved path.
type ExecutionState struct {
	ID                 string          `json:"id" yaml:"id"`
	GraphID            string          `json:"graph_id" yaml:"graph_id"`
	PathID             string          `json:"path_id" yaml:"path_id"`
	Domain             string          `json:"domain,omitempty" yaml:"domain,omitempty"`
	CurrentNode        string          `json:"current_node" yaml:"current_node"`
	CompletedNodes     []string        `json:"completed_nodes" yaml:"completed_nodes"`
	AskedQuestions     []string        `json:"asked_questions,omitempty" yaml:"asked_questions,omitempty"`
	ActualCostUnits    int             `json:"actual_cost_units" yaml:"actual_cost_units"`
	RemainingCostUnits int             `json:"remaining_cost_units" yaml:"remaining_cost_units"`
	StartedAt          time.Time       `json:"started_at" yaml:"started_at"`
	UpdatedAt          time.Time       `json:"updated_at" yaml:"updated_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Status             ExecutionStatus `json:"status" yaml:"status"`
}

// QuestionKey identifies a question within a run; question ids are only
// unique per node.
func QuestionKey(nodeID, questionID string) string {
	return nodeID + "/" + questionID
}

// Asked reports whether the node's question was already handed out.
func (s ExecutionState) Asked(nodeID, questionID string) bool {
	key := QuestionKey(nodeID, questionID)
	for _, asked := range s.AskedQuestions {
		if asked == key {
			return true
		}
	}
	return false
}

// Terminal reports whether the run can no longer move.
func (s ExecutionState) Terminal() bool {
	return s.Status == ExecutionComplete || s.Status == ExecutionAbandoned
}

// Clone returns a deep copy of the state.
func (s ExecutionState) Clone() ExecutionState {
	clone := s
	clone.CompletedNodes = cloneStringSlice(s.CompletedNodes)
	clone.AskedQuestions = cloneStringSlice(s.AskedQuestions)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		clone.CompletedAt = &at
	}
	return clone
}
