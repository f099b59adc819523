package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType tags what kind of work a node represents.
type NodeType string

const (
	NodeTypePhaseStart  NodeType = "phase_start"
	NodeTypePhaseEnd    NodeType = "phase_end"
	NodeTypeQuestionSet NodeType = "question_set"
	NodeTypeAnalysis    NodeType = "analysis"
	NodeTypeDecision    NodeType = "decision"
	NodeTypeValidation  NodeType = "validation"
)

// Valid reports whether the type is one of the fixed node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypePhaseStart, NodeTypePhaseEnd, NodeTypeQuestionSet,
		NodeTypeAnalysis, NodeTypeDecision, NodeTypeValidation:
		return true
	}
	return false
}

// Question is a single candidate prompt a node may ask.
type Question struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Node is one step of a workflow graph.
type Node struct {
	ID               string            `json:"id" yaml:"id"`
	Type             NodeType          `json:"type" yaml:"type"`
	Label            string            `json:"label,omitempty" yaml:"label,omitempty"`
	CostUnits        int               `json:"cost_units,omitempty" yaml:"cost_units,omitempty"`
	Questions        []Question        `json:"questions,omitempty" yaml:"questions,omitempty"`
	TargetCategories []string          `json:"target_categories,omitempty" yaml:"target_categories,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	clone := n
	if len(n.Questions) > 0 {
		clone.Questions = make([]Question, len(n.Questions))
		copy(clone.Questions, n.Questions)
	}
	clone.TargetCategories = cloneStringSlice(n.TargetCategories)
	clone.Metadata = cloneStringMap(n.Metadata)
	return clone
}

// Edge is a directed transition between two nodes. Condition is carried for
// future conditional routing and is never evaluated.
type Edge struct {
	From        string  `json:"from" yaml:"from"`
	To          string  `json:"to" yaml:"to"`
	Probability float64 `json:"probability,omitempty" yaml:"probability,omitempty"`
	Condition   string  `json:"condition,omitempty" yaml:"condition,omitempty"`
	CostUnits   int     `json:"cost_units,omitempty" yaml:"cost_units,omitempty"`
}

// ID returns the "from-to" label of the edge. Node ids may contain hyphens,
// so the label is for display; the (From, To) pair is the identity.
func (e Edge) ID() string {
	return EdgeID(e.From, e.To)
}

// EdgeID formats the display label of the edge from -> to.
func EdgeID(from, to string) string {
	return from + "-" + to
}

// GraphDefinition declares a workflow graph: its nodes, transitions, and the
// designated entry and exit points.
type GraphDefinition struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Phase    string            `json:"phase" yaml:"phase"`
	Nodes    map[string]Node   `json:"nodes" yaml:"nodes"`
	Edges    []Edge            `json:"edges,omitempty" yaml:"edges,omitempty"`
	Start    string            `json:"start" yaml:"start"`
	End      []string          `json:"end" yaml:"end"`
	Strategy string            `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the graph definition.
func (def GraphDefinition) Clone() GraphDefinition {
	clone := GraphDefinition{
		ID:       def.ID,
		Name:     def.Name,
		Phase:    def.Phase,
		Start:    def.Start,
		End:      cloneStringSlice(def.End),
		Strategy: def.Strategy,
		Metadata: cloneStringMap(def.Metadata),
	}
	if len(def.Nodes) > 0 {
		clone.Nodes = make(map[string]Node, len(def.Nodes))
		for id, node := range def.Nodes {
			clone.Nodes[id] = node.Clone()
		}
	}
	if len(def.Edges) > 0 {
		clone.Edges = make([]Edge, len(def.Edges))
		copy(clone.Edges, def.Edges)
	}
	return clone
}

// Validate ensures the graph definition is self-consistent. Every failure
// wraps ErrInvalidDefinition.
func (def GraphDefinition) Validate() error {
	if def.ID == "" {
		return invalidf("id is required")
	}
	if len(def.Nodes) == 0 {
		return invalidf("graph %s: at least one node is required", def.ID)
	}
	for key, node := range def.Nodes {
		if node.ID != key {
			return invalidf("graph %s: node key %s does not match id %q", def.ID, key, node.ID)
		}
		if !node.Type.Valid() {
			return invalidf("graph %s: node %s has unknown type %q", def.ID, key, node.Type)
		}
		if node.CostUnits < 0 {
			return invalidf("graph %s: node %s has negative cost", def.ID, key)
		}
		seen := map[string]struct{}{}
		for idx, q := range node.Questions {
			if q.ID == "" {
				return invalidf("graph %s: node %s question[%d] id is required", def.ID, key, idx)
			}
			if _, dup := seen[q.ID]; dup {
				return invalidf("graph %s: node %s has duplicate question %s", def.ID, key, q.ID)
			}
			seen[q.ID] = struct{}{}
		}
	}
	if def.Start == "" {
		return invalidf("graph %s: start node is required", def.ID)
	}
	if _, ok := def.Nodes[def.Start]; !ok {
		return invalidf("graph %s: start node %s is not declared", def.ID, def.Start)
	}
	if len(def.End) == 0 {
		return invalidf("graph %s: at least one end node is required", def.ID)
	}
	ends := map[string]struct{}{}
	for _, id := range def.End {
		if _, ok := def.Nodes[id]; !ok {
			return invalidf("graph %s: end node %s is not declared", def.ID, id)
		}
		if _, dup := ends[id]; dup {
			return invalidf("graph %s: duplicate end node %s", def.ID, id)
		}
		ends[id] = struct{}{}
	}
	edges := map[[2]string]struct{}{}
	for idx, edge := range def.Edges {
		if _, ok := def.Nodes[edge.From]; !ok {
			return invalidf("graph %s: edge[%d] references unknown node %s", def.ID, idx, edge.From)
		}
		if _, ok := def.Nodes[edge.To]; !ok {
			return invalidf("graph %s: edge[%d] references unknown node %s", def.ID, idx, edge.To)
		}
		if edge.CostUnits < 0 {
			return invalidf("graph %s: edge %s has negative cost", def.ID, edge.ID())
		}
		pair := [2]string{edge.From, edge.To}
		if _, dup := edges[pair]; dup {
			return invalidf("graph %s: duplicate edge %s -> %s", def.ID, edge.From, edge.To)
		}
		edges[pair] = struct{}{}
	}
	if def.Strategy != "" && !KnownStrategyName(def.Strategy) {
		return invalidf("graph %s: unknown strategy %q", def.ID, def.Strategy)
	}
	return nil
}

// Normalized clones the definition, fills node ids from their map keys,
// trims names, and validates the result.
func (def GraphDefinition) Normalized() (GraphDefinition, error) {
	clone := def.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	clone.Start = strings.TrimSpace(clone.Start)
	clone.Strategy = strings.ToLower(strings.TrimSpace(clone.Strategy))
	for key, node := range clone.Nodes {
		if node.ID == "" {
			node.ID = key
		}
		node.Type = NodeType(strings.ToLower(strings.TrimSpace(string(node.Type))))
		clone.Nodes[key] = node
	}
	for i, id := range clone.End {
		clone.End[i] = strings.TrimSpace(id)
	}
	if clone.Name == "" {
		clone.Name = clone.ID
	}
	if err := clone.Validate(); err != nil {
		return GraphDefinition{}, err
	}
	return clone, nil
}

// Node returns the node with the given id.
func (def GraphDefinition) Node(id string) (Node, bool) {
	node, ok := def.Nodes[id]
	return node, ok
}

// EdgeBetween looks up the edge leaving from and entering to.
func (def GraphDefinition) EdgeBetween(from, to string) (Edge, bool) {
	for _, edge := range def.Edges {
		if edge.From == from && edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// Outgoing returns the edges leaving a node in declaration order.
func (def GraphDefinition) Outgoing(id string) []Edge {
	var out []Edge
	for _, edge := range def.Edges {
		if edge.From == id {
			out = append(out, edge)
		}
	}
	return out
}

// IsEnd reports whether id is one of the declared end nodes.
func (def GraphDefinition) IsEnd(id string) bool {
	for _, end := range def.End {
		if end == id {
			return true
		}
	}
	return false
}

// NodeIDs returns every node id in sorted order.
func (def GraphDefinition) NodeIDs() []string {
	ids := make([]string, 0, len(def.Nodes))
	for id := range def.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("workflow: %s: %w", fmt.Sprintf(format, args...), ErrInvalidDefinition)
}

func cloneStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clone := make([]string, len(values))
	copy(clone, values)
	return clone
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	clone := make(map[string]string, len(values))
	for key, value := range values {
		clone[key] = value
	}
	return clone
}
