package selector

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/cost"
)

// Batch is the result of one Next call.
type Batch struct {
	// NodeID is the cursor after the call.
	NodeID    string              `json:"node_id"`
	Questions []workflow.Question `json:"questions,omitempty"`
	// Advanced is set when the cursor moved during the call.
	Advanced bool `json:"advanced,omitempty"`
	Complete bool `json:"complete,omitempty"`
}

// Selector hands out questions and moves cursors. It keeps no per-run state.
type Selector struct {
	costs      *cost.Calculator
	categories categories.Provider
	clock      func() time.Time
	logger     *slog.Logger
}

// Option customizes a Selector.
type Option func(*Selector)

// WithCategories enables skipping questions whose category the project has
// already satisfied, using the target weights of the run's domain.
func WithCategories(provider categories.Provider) Option {
	return func(s *Selector) {
		s.categories = provider
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Selector) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Selector. costs supplies the remaining-cost estimate.
func New(costs *cost.Calculator, opts ...Option) *Selector {
	if costs == nil {
		costs = cost.New(cost.DefaultPricing(), nil)
	}
	s := &Selector{
		costs:  costs,
		clock:  time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Begin creates the initial state of a run on path, with the cursor at the
// start node. A path whose start is also an end node begins complete.
func (s *Selector) Begin(runID, domain string, def workflow.GraphDefinition, path workflow.Path) (workflow.ExecutionState, error) {
	if len(path.Nodes) == 0 || path.Start() != def.Start {
		return workflow.ExecutionState{}, fmt.Errorf("selector: path %s does not begin at %s: %w", path.ID, def.Start, workflow.ErrPathNotFound)
	}
	if !def.IsEnd(path.End()) {
		return workflow.ExecutionState{}, fmt.Errorf("selector: path %s does not finish at an end node: %w", path.ID, workflow.ErrPathNotFound)
	}
	now := s.clock().UTC()
	state := workflow.ExecutionState{
		ID:                 runID,
		GraphID:            def.ID,
		PathID:             path.ID,
		Domain:             domain,
		CurrentNode:        path.Start(),
		CompletedNodes:     []string{},
		RemainingCostUnits: s.costs.Remaining(path, def, 0),
		StartedAt:          now,
		UpdatedAt:          now,
		Status:             workflow.ExecutionActive,
	}
	if def.IsEnd(state.CurrentNode) {
		s.complete(&state, def, now)
	}
	return state, nil
}

// IsComplete reports whether the cursor sits on a declared end node.
func IsComplete(def workflow.GraphDefinition, state workflow.ExecutionState) bool {
	return def.IsEnd(state.CurrentNode)
}

// Next returns up to limit questions for the cursor, or advances the cursor
// when the current node has nothing outstanding. limit <= 0 means no limit.
// The input state is never modified; the returned state reflects the call.
// A run already at an end node reports Complete and is returned unchanged.
func (s *Selector) Next(coverage categories.Coverage, def workflow.GraphDefinition, path workflow.Path, state workflow.ExecutionState, limit int) (Batch, workflow.ExecutionState, error) {
	state = state.Clone()
	if state.Status == workflow.ExecutionAbandoned {
		return Batch{}, state, fmt.Errorf("selector: run %s is abandoned: %w", state.ID, workflow.ErrInvalidTransition)
	}
	if IsComplete(def, state) {
		return Batch{NodeID: state.CurrentNode, Complete: true}, state, nil
	}
	if err := checkPath(path, state); err != nil {
		return Batch{}, state, err
	}
	targets := s.targets(def, state.Domain)
	if questions := s.take(&state, def, coverage, targets, limit); len(questions) > 0 {
		return Batch{NodeID: state.CurrentNode, Questions: questions}, state, nil
	}
	next, err := s.Advance(def, path, state)
	if err != nil {
		return Batch{}, state, err
	}
	batch := Batch{NodeID: next.CurrentNode, Advanced: true}
	if next.Status == workflow.ExecutionComplete {
		batch.Complete = true
		return batch, next, nil
	}
	batch.Questions = s.take(&next, def, coverage, targets, limit)
	return batch, next, nil
}

// Advance moves the cursor to the next node on path and updates the cost
// accounting. It fails on terminal runs and on states that do not belong
// to path.
func (s *Selector) Advance(def workflow.GraphDefinition, path workflow.Path, state workflow.ExecutionState) (workflow.ExecutionState, error) {
	state = state.Clone()
	if state.Terminal() {
		return state, fmt.Errorf("selector: run %s is %s: %w", state.ID, state.Status, workflow.ErrInvalidTransition)
	}
	if err := checkPath(path, state); err != nil {
		return state, err
	}
	idx := path.IndexOf(state.CurrentNode)
	if idx < 0 || idx+1 >= len(path.Nodes) {
		return state, fmt.Errorf("selector: cursor %s cannot advance on path %s: %w", state.CurrentNode, path.ID, workflow.ErrInvalidTransition)
	}
	if node, ok := def.Node(state.CurrentNode); ok {
		state.ActualCostUnits += node.CostUnits
	}
	if edge, ok := def.EdgeBetween(path.Nodes[idx], path.Nodes[idx+1]); ok {
		state.ActualCostUnits += edge.CostUnits
	}
	now := s.clock().UTC()
	from := state.CurrentNode
	state.CompletedNodes = append(state.CompletedNodes, from)
	state.CurrentNode = path.Nodes[idx+1]
	state.RemainingCostUnits = s.costs.Remaining(path, def, idx+1)
	state.UpdatedAt = now
	if def.IsEnd(state.CurrentNode) {
		s.complete(&state, def, now)
	}
	s.logger.Debug("selector: cursor advanced", "run", state.ID, "from", from, "to", state.CurrentNode, "status", state.Status)
	return state, nil
}

func (s *Selector) complete(state *workflow.ExecutionState, def workflow.GraphDefinition, now time.Time) {
	if node, ok := def.Node(state.CurrentNode); ok {
		state.ActualCostUnits += node.CostUnits
	}
	state.RemainingCostUnits = 0
	state.Status = workflow.ExecutionComplete
	state.CompletedAt = &now
}

// take picks the outstanding questions of the cursor node and records them
// as asked.
func (s *Selector) take(state *workflow.ExecutionState, def workflow.GraphDefinition, coverage categories.Coverage, targets map[string]float64, limit int) []workflow.Question {
	node, ok := def.Node(state.CurrentNode)
	if !ok || len(node.Questions) == 0 {
		return nil
	}
	var outstanding []workflow.Question
	for _, q := range node.Questions {
		if state.Asked(node.ID, q.ID) {
			continue
		}
		if q.Category != "" && coverage.Satisfied(q.Category, targets[q.Category]) {
			continue
		}
		outstanding = append(outstanding, q)
	}
	sort.SliceStable(outstanding, func(i, j int) bool {
		return outstanding[i].Priority < outstanding[j].Priority
	})
	if limit > 0 && len(outstanding) > limit {
		outstanding = outstanding[:limit]
	}
	for _, q := range outstanding {
		state.AskedQuestions = append(state.AskedQuestions, workflow.QuestionKey(node.ID, q.ID))
	}
	if len(outstanding) > 0 {
		state.UpdatedAt = s.clock().UTC()
	}
	return outstanding
}

func (s *Selector) targets(def workflow.GraphDefinition, domain string) map[string]float64 {
	if s.categories == nil || domain == "" {
		return nil
	}
	targets, err := s.categories.Categories(domain, def.Phase)
	if err != nil {
		s.logger.Warn("selector: category lookup failed, asking every question", "domain", domain, "phase", def.Phase, "error", err)
		return nil
	}
	return targets
}

func checkPath(path workflow.Path, state workflow.ExecutionState) error {
	if state.PathID != path.ID {
		return fmt.Errorf("selector: run %s is bound to path %s, not %s: %w", state.ID, state.PathID, path.ID, workflow.ErrInvalidTransition)
	}
	if path.IndexOf(state.CurrentNode) < 0 {
		return fmt.Errorf("selector: cursor %s is not on path %s: %w", state.CurrentNode, path.ID, workflow.ErrInvalidTransition)
	}
	return nil
}
