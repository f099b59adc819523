package workflow

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// hclGraph mirrors GraphDefinition with HCL block structure:
//
//	id    = "discovery"
//	phase = "discovery"
//	start = "begin"
//	end   = ["finish"]
//
//	node "begin" { type = "phase_start" }
//	node "goals" {
//	  type              = "question_set"
//	  cost_units        = 4000
//	  target_categories = ["goals"]
//	  question "why" { text = "Why now?" }
//	}
//	edge { from = "begin" to = "goals" }
type hclGraph struct {
	ID       string            `hcl:"id"`
	Name     string            `hcl:"name,optional"`
	Phase    string            `hcl:"phase,optional"`
	Start    string            `hcl:"start"`
	End      []string          `hcl:"end"`
	Strategy string            `hcl:"strategy,optional"`
	Metadata map[string]string `hcl:"metadata,optional"`
	Nodes    []hclNode         `hcl:"node,block"`
	Edges    []hclEdge         `hcl:"edge,block"`
}

type hclNode struct {
	ID               string            `hcl:"id,label"`
	Type             string            `hcl:"type"`
	Label            string            `hcl:"label,optional"`
	CostUnits        int               `hcl:"cost_units,optional"`
	TargetCategories []string          `hcl:"target_categories,optional"`
	Metadata         map[string]string `hcl:"metadata,optional"`
	Questions        []hclQuestion     `hcl:"question,block"`
}

type hclQuestion struct {
	ID       string `hcl:"id,label"`
	Text     string `hcl:"text"`
	Category string `hcl:"category,optional"`
	Priority int    `hcl:"priority,optional"`
}

type hclEdge struct {
	From        string  `hcl:"from"`
	To          string  `hcl:"to"`
	Probability float64 `hcl:"probability,optional"`
	Condition   string  `hcl:"condition,optional"`
	CostUnits   int     `hcl:"cost_units,optional"`
}

// ParseDefinitionHCL decodes a graph definition written in HCL. The filename
// only labels diagnostics.
func ParseDefinitionHCL(filename string, src []byte) (GraphDefinition, error) {
	if !strings.HasSuffix(filename, ".hcl") {
		filename += ".hcl"
	}
	var raw hclGraph
	if err := hclsimple.Decode(filename, src, nil, &raw); err != nil {
		return GraphDefinition{}, fmt.Errorf("workflow: decode hcl definition: %w", err)
	}
	def := GraphDefinition{
		ID:       raw.ID,
		Name:     raw.Name,
		Phase:    raw.Phase,
		Start:    raw.Start,
		End:      raw.End,
		Strategy: raw.Strategy,
		Metadata: raw.Metadata,
		Nodes:    make(map[string]Node, len(raw.Nodes)),
	}
	for _, n := range raw.Nodes {
		if _, dup := def.Nodes[n.ID]; dup {
			return GraphDefinition{}, invalidf("graph %s: duplicate node block %s", raw.ID, n.ID)
		}
		node := Node{
			ID:               n.ID,
			Type:             NodeType(n.Type),
			Label:            n.Label,
			CostUnits:        n.CostUnits,
			TargetCategories: n.TargetCategories,
			Metadata:         n.Metadata,
		}
		for _, q := range n.Questions {
			node.Questions = append(node.Questions, Question(q))
		}
		def.Nodes[n.ID] = node
	}
	for _, e := range raw.Edges {
		def.Edges = append(def.Edges, Edge(e))
	}
	return def.Normalized()
}
