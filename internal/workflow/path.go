package workflow

import (
	"strings"

	"github.com/google/uuid"
)

// pathNamespace seeds deterministic path identities.
var pathNamespace = uuid.MustParse("6f1d3c8e-4b0a-5e2f-9a7d-2c4e8b1f0a35")

// RiskScore holds the overall risk of a path and its three components, each
// in [0, 100]. Degraded is set when category data could not be resolved and
// the scores are the conservative default.
type RiskScore struct {
	Overall        float64 `json:"overall" yaml:"overall"`
	Incompleteness float64 `json:"incompleteness" yaml:"incompleteness"`
	Complexity     float64 `json:"complexity" yaml:"complexity"`
	Rework         float64 `json:"rework" yaml:"rework"`
	Degraded       bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// Path is one cycle-free route from the start node to an end node. The path
// finder fills Nodes and Edges; the optimizer fills the derived scores.
type Path struct {
	ID                string         `json:"id" yaml:"id"`
	Nodes             []string       `json:"nodes" yaml:"nodes"`
	Edges             []string       `json:"edges" yaml:"edges"`
	CostUnits         int            `json:"cost_units" yaml:"cost_units"`
	CostUSD           float64        `json:"cost_usd" yaml:"cost_usd"`
	CostInputUSD      float64        `json:"cost_input_usd" yaml:"cost_input_usd"`
	CostOutputUSD     float64        `json:"cost_output_usd" yaml:"cost_output_usd"`
	CostBreakdown     map[string]int `json:"cost_breakdown,omitempty" yaml:"cost_breakdown,omitempty"`
	Risk              RiskScore      `json:"risk" yaml:"risk"`
	MissingCategories []string       `json:"missing_categories,omitempty" yaml:"missing_categories,omitempty"`
	Quality           float64        `json:"quality" yaml:"quality"`
	ExpectedGain      float64        `json:"expected_gain" yaml:"expected_gain"`
	ROI               float64        `json:"roi" yaml:"roi"`
}

// NewPath builds an unscored path whose identity is derived from the graph id
// and node sequence, so re-enumerating a graph yields the same ids.
func NewPath(graphID string, nodes, edges []string) Path {
	return Path{
		ID:    uuid.NewSHA1(pathNamespace, []byte(graphID+":"+strings.Join(nodes, ">"))).String(),
		Nodes: cloneStringSlice(nodes),
		Edges: cloneStringSlice(edges),
	}
}

// Key is the joined node sequence; it orders paths independently of their
// enumeration order.
func (p Path) Key() string {
	return strings.Join(p.Nodes, ">")
}

// Start returns the first node of the path.
func (p Path) Start() string {
	if len(p.Nodes) == 0 {
		return ""
	}
	return p.Nodes[0]
}

// End returns the last node of the path.
func (p Path) End() string {
	if len(p.Nodes) == 0 {
		return ""
	}
	return p.Nodes[len(p.Nodes)-1]
}

// IndexOf returns the position of a node on the path, or -1.
func (p Path) IndexOf(nodeID string) int {
	for i, id := range p.Nodes {
		if id == nodeID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	clone := p
	clone.Nodes = cloneStringSlice(p.Nodes)
	clone.Edges = cloneStringSlice(p.Edges)
	clone.MissingCategories = cloneStringSlice(p.MissingCategories)
	if len(p.CostBreakdown) > 0 {
		clone.CostBreakdown = make(map[string]int, len(p.CostBreakdown))
		for id, units := range p.CostBreakdown {
			clone.CostBreakdown[id] = units
		}
	}
	return clone
}
