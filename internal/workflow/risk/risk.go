// Package risk scores how likely a path is to leave gaps or need rework.
//
// Three independent dimensions are computed and blended with fixed weights:
//
//   - incompleteness: share of the phase's categories the path never covers
//   - complexity: accumulated per-node-type weight
//   - rework: predicted chance of revisiting earlier answers
package risk

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/workflow"
)

// Blend weights for the overall score. They sum to 1.
const (
	WeightIncompleteness = 0.4
	WeightComplexity     = 0.3
	WeightRework         = 0.3
)

// DegradedScore is returned for every dimension when the category set cannot
// be resolved.
const DegradedScore = 50.0

const (
	questionSetBase        = 10.0
	questionSetPerCategory = 5.0
	analysisWeight         = 15.0
	decisionWeight         = 10.0
	validationWeight       = 5.0

	reworkIncompletenessFactor = 0.8
	reworkPerNode              = 2.0
	reworkLengthCap            = 20.0
	reworkPerMissing           = 5.0
)

// DefaultBaselineCategories are implicitly covered by every question-set node.
func DefaultBaselineCategories() []string {
	return []string{"goals", "requirements", "constraints"}
}

// Options configures a Calculator.
type Options struct {
	// BaselineCategories replaces DefaultBaselineCategories when non-nil.
	BaselineCategories []string
	Logger             *slog.Logger
}

// Assessment is the risk evaluation of one path.
type Assessment struct {
	workflow.RiskScore
	// Missing lists the phase categories the path does not cover, sorted.
	Missing []string
}

// Calculator evaluates path risk against a category provider.
type Calculator struct {
	provider categories.Provider
	baseline []string
	logger   *slog.Logger
}

// New constructs a Calculator.
func New(provider categories.Provider, opts Options) *Calculator {
	baseline := opts.BaselineCategories
	if baseline == nil {
		baseline = DefaultBaselineCategories()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Calculator{provider: provider, baseline: baseline, logger: logger}
}

// Assess scores path for the given domain. Categories the project has
// already satisfied (per coverage) count as covered. A category lookup
// failure never propagates: the degraded default is returned instead.
func (c *Calculator) Assess(path workflow.Path, def workflow.GraphDefinition, domain string, coverage categories.Coverage) Assessment {
	all, err := c.lookup(domain, def.Phase)
	if err != nil {
		c.logger.Warn("risk: category lookup failed, using degraded score",
			"graph", def.ID, "domain", domain, "phase", def.Phase, "error", err)
		return Assessment{RiskScore: workflow.RiskScore{
			Overall:        DegradedScore,
			Incompleteness: DegradedScore,
			Complexity:     DegradedScore,
			Rework:         DegradedScore,
			Degraded:       true,
		}}
	}
	missing := c.missing(path, def, all, coverage)
	incompleteness := 0.0
	if len(all) > 0 {
		incompleteness = float64(len(missing)) / float64(len(all)) * 100
	}
	complexity := Complexity(path, def)
	rework := Rework(incompleteness, len(path.Nodes), len(missing))
	return Assessment{
		RiskScore: workflow.RiskScore{
			Overall:        Overall(incompleteness, complexity, rework),
			Incompleteness: incompleteness,
			Complexity:     complexity,
			Rework:         rework,
		},
		Missing: missing,
	}
}

func (c *Calculator) lookup(domain, phase string) (map[string]float64, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("risk: no category provider configured")
	}
	return c.provider.Categories(domain, phase)
}

func (c *Calculator) missing(path workflow.Path, def workflow.GraphDefinition, all map[string]float64, coverage categories.Coverage) []string {
	covered := map[string]struct{}{}
	for _, id := range path.Nodes {
		node, ok := def.Node(id)
		if !ok {
			continue
		}
		for _, cat := range node.TargetCategories {
			covered[cat] = struct{}{}
		}
		if node.Type == workflow.NodeTypeQuestionSet {
			for _, cat := range c.baseline {
				covered[cat] = struct{}{}
			}
		}
	}
	var missing []string
	for cat, target := range all {
		if _, ok := covered[cat]; ok {
			continue
		}
		if coverage.Satisfied(cat, target) {
			continue
		}
		missing = append(missing, cat)
	}
	sort.Strings(missing)
	return missing
}

// Complexity accumulates the per-node-type weight along path, capped at 100.
func Complexity(path workflow.Path, def workflow.GraphDefinition) float64 {
	total := 0.0
	for _, id := range path.Nodes {
		node, ok := def.Node(id)
		if !ok {
			continue
		}
		switch node.Type {
		case workflow.NodeTypeQuestionSet:
			total += questionSetBase + questionSetPerCategory*float64(len(node.TargetCategories))
		case workflow.NodeTypeAnalysis:
			total += analysisWeight
		case workflow.NodeTypeDecision:
			total += decisionWeight
		case workflow.NodeTypeValidation:
			total += validationWeight
		}
	}
	return math.Min(total, 100)
}

// Rework predicts the chance of a later contradiction from incompleteness,
// path length, and missing-category count, capped at 100.
func Rework(incompleteness float64, nodeCount, missingCount int) float64 {
	score := incompleteness * reworkIncompletenessFactor
	score += math.Min(reworkPerNode*float64(nodeCount), reworkLengthCap)
	score += reworkPerMissing * float64(missingCount)
	return math.Min(score, 100)
}

// Overall blends the three dimensions with the fixed weights.
func Overall(incompleteness, complexity, rework float64) float64 {
	return incompleteness*WeightIncompleteness + complexity*WeightComplexity + rework*WeightRework
}
