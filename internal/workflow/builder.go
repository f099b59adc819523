package workflow

import (
	"errors"
	"fmt"
)

// Builder assembles a GraphDefinition through a fluent API. Errors are
// accumulated and reported together by Build.
type Builder struct {
	def  GraphDefinition
	errs []error
}

// NewBuilder starts a graph definition with the given id and display name.
func NewBuilder(id, name string) *Builder {
	return &Builder{
		def: GraphDefinition{
			ID:    id,
			Name:  name,
			Nodes: map[string]Node{},
		},
	}
}

// Phase sets the phase the graph applies to.
func (b *Builder) Phase(phase string) *Builder {
	b.def.Phase = phase
	return b
}

// Strategy sets the default selection strategy.
func (b *Builder) Strategy(name StrategyName) *Builder {
	b.def.Strategy = string(name)
	return b
}

// Metadata attaches a free-form key/value pair to the graph.
func (b *Builder) Metadata(key, value string) *Builder {
	if b.def.Metadata == nil {
		b.def.Metadata = map[string]string{}
	}
	b.def.Metadata[key] = value
	return b
}

// AddNode adds a node. Duplicate ids are recorded as errors.
func (b *Builder) AddNode(node Node) *Builder {
	if node.ID == "" {
		b.errs = append(b.errs, fmt.Errorf("node must have an id"))
		return b
	}
	if _, exists := b.def.Nodes[node.ID]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already exists", node.ID))
		return b
	}
	b.def.Nodes[node.ID] = node.Clone()
	return b
}

// AddQuestionSet is a helper for the common question-set node.
func (b *Builder) AddQuestionSet(id, label string, costUnits int, categories []string, questions ...Question) *Builder {
	return b.AddNode(Node{
		ID:               id,
		Type:             NodeTypeQuestionSet,
		Label:            label,
		CostUnits:        costUnits,
		TargetCategories: categories,
		Questions:        questions,
	})
}

// AddEdge connects two nodes with a zero-cost, certain transition.
func (b *Builder) AddEdge(from, to string) *Builder {
	return b.AddWeightedEdge(Edge{From: from, To: to, Probability: 1})
}

// AddWeightedEdge adds a fully specified edge.
func (b *Builder) AddWeightedEdge(edge Edge) *Builder {
	if edge.From == "" || edge.To == "" {
		b.errs = append(b.errs, fmt.Errorf("edge %q must name both endpoints", edge.ID()))
		return b
	}
	b.def.Edges = append(b.def.Edges, edge)
	return b
}

// Start designates the entry node.
func (b *Builder) Start(id string) *Builder {
	b.def.Start = id
	return b
}

// End designates one or more exit nodes.
func (b *Builder) End(ids ...string) *Builder {
	b.def.End = append(b.def.End, ids...)
	return b
}

// Build validates and returns the immutable definition.
func (b *Builder) Build() (GraphDefinition, error) {
	if len(b.errs) > 0 {
		return GraphDefinition{}, fmt.Errorf("workflow: build %s: %w: %w", b.def.ID, ErrInvalidDefinition, errors.Join(b.errs...))
	}
	return b.def.Normalized()
}
