// Package cost estimates what walking a path will consume, in abstract units
// (tokens) and in money.
package cost

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kingrea/waypoint/internal/workflow"
)

// Pricing holds per-million-unit monetary rates.
type Pricing struct {
	InputPerMillion   float64 `json:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion  float64 `json:"output_per_million" yaml:"output_per_million"`
	AveragePerMillion float64 `json:"average_per_million" yaml:"average_per_million"`
	// InputShare is the fraction of units billed at the input rate.
	InputShare float64 `json:"input_share" yaml:"input_share"`
}

// DefaultPricing mirrors a typical hosted-model price sheet.
func DefaultPricing() Pricing {
	return Pricing{
		InputPerMillion:   3.00,
		OutputPerMillion:  15.00,
		AveragePerMillion: 9.00,
		InputShare:        0.5,
	}
}

// Validate rejects negative rates and shares outside [0, 1].
func (p Pricing) Validate() error {
	if p.InputPerMillion < 0 || p.OutputPerMillion < 0 || p.AveragePerMillion < 0 {
		return fmt.Errorf("cost: rates must be >= 0")
	}
	if p.InputShare < 0 || p.InputShare > 1 {
		return fmt.Errorf("cost: input_share must be within [0, 1]")
	}
	return nil
}

// Estimate is the cost of one path.
type Estimate struct {
	Units     int
	NodeUnits int
	EdgeUnits int
	// USD is the blended estimate at the average rate.
	USD       float64
	InputUSD  float64
	OutputUSD float64
	// PerNode maps each visited node to its own cost units.
	PerNode map[string]int
}

// AsymmetricUSD is the estimate using separate input and output rates.
func (e Estimate) AsymmetricUSD() float64 {
	return e.InputUSD + e.OutputUSD
}

// Calculator sums node and edge costs along a path.
type Calculator struct {
	pricing Pricing
	logger  *slog.Logger
}

// New constructs a Calculator. A nil logger discards warnings.
func New(pricing Pricing, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calculator{pricing: pricing, logger: logger}
}

// Calculate totals the cost of path within def. Node or edge references that
// do not resolve are logged and counted as zero.
func (c *Calculator) Calculate(path workflow.Path, def workflow.GraphDefinition) Estimate {
	est := Estimate{PerNode: make(map[string]int, len(path.Nodes))}
	for _, id := range path.Nodes {
		node, ok := def.Node(id)
		if !ok {
			c.logger.Warn("cost: node not found, counting as zero", "graph", def.ID, "node", id)
			est.PerNode[id] = 0
			continue
		}
		est.PerNode[id] = node.CostUnits
		est.NodeUnits += node.CostUnits
	}
	for i := 0; i+1 < len(path.Nodes); i++ {
		edge, ok := def.EdgeBetween(path.Nodes[i], path.Nodes[i+1])
		if !ok {
			c.logger.Warn("cost: edge not found, counting as zero", "graph", def.ID, "from", path.Nodes[i], "to", path.Nodes[i+1])
			continue
		}
		est.EdgeUnits += edge.CostUnits
	}
	est.Units = est.NodeUnits + est.EdgeUnits
	est.USD = c.usd(est.Units, c.pricing.AveragePerMillion)
	est.InputUSD = c.usd(est.Units, c.pricing.InputPerMillion) * c.pricing.InputShare
	est.OutputUSD = c.usd(est.Units, c.pricing.OutputPerMillion) * (1 - c.pricing.InputShare)
	return est
}

// Remaining returns the units not yet consumed while a cursor sits at the
// node with the given path index: that node and everything after it.
func (c *Calculator) Remaining(path workflow.Path, def workflow.GraphDefinition, index int) int {
	if index < 0 {
		index = 0
	}
	total := 0
	for i := index; i < len(path.Nodes); i++ {
		if node, ok := def.Node(path.Nodes[i]); ok {
			total += node.CostUnits
		}
	}
	for i := index; i+1 < len(path.Nodes); i++ {
		if edge, ok := def.EdgeBetween(path.Nodes[i], path.Nodes[i+1]); ok {
			total += edge.CostUnits
		}
	}
	return total
}

func (c *Calculator) usd(units int, perMillion float64) float64 {
	return float64(units) * perMillion / 1_000_000
}
