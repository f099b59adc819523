package optimizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/waypoint/internal/workflow"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("optimizer: unknown strategy")

// Balanced blend weights.
const (
	balancedCostWeight    = 0.5
	balancedRiskWeight    = 0.3
	balancedQualityWeight = 0.2
)

// Strategy picks a recommended path from scored candidates. The set of
// strategies is closed; every implementation lives in this file.
type Strategy interface {
	Name() workflow.StrategyName
	// Select returns the recommendation, or false when the strategy leaves
	// the choice to the caller. Results never depend on candidate order.
	Select(paths []workflow.Path) (workflow.Path, bool)
	strategy()
}

type (
	MinimizeCost    struct{}
	MinimizeRisk    struct{}
	MaximizeQuality struct{}
	Balanced        struct{}
	UserChoice      struct{}
)

func (MinimizeCost) strategy()    {}
func (MinimizeRisk) strategy()    {}
func (MaximizeQuality) strategy() {}
func (Balanced) strategy()        {}
func (UserChoice) strategy()      {}

func (MinimizeCost) Name() workflow.StrategyName    { return workflow.StrategyMinimizeCost }
func (MinimizeRisk) Name() workflow.StrategyName    { return workflow.StrategyMinimizeRisk }
func (MaximizeQuality) Name() workflow.StrategyName { return workflow.StrategyMaximizeQuality }
func (Balanced) Name() workflow.StrategyName        { return workflow.StrategyBalanced }
func (UserChoice) Name() workflow.StrategyName      { return workflow.StrategyUserChoice }

// Select returns the path with the fewest cost units.
func (MinimizeCost) Select(paths []workflow.Path) (workflow.Path, bool) {
	return best(paths, func(p workflow.Path) float64 { return -float64(p.CostUnits) })
}

// Select returns the path with the lowest overall risk.
func (MinimizeRisk) Select(paths []workflow.Path) (workflow.Path, bool) {
	return best(paths, func(p workflow.Path) float64 { return -p.Risk.Overall })
}

// Select returns the path with the highest quality score.
func (MaximizeQuality) Select(paths []workflow.Path) (workflow.Path, bool) {
	return best(paths, func(p workflow.Path) float64 { return p.Quality })
}

// Select min-max normalises cost, risk, and quality across the candidates
// and returns the highest weighted blend. Cost and risk are inverted.
func (Balanced) Select(paths []workflow.Path) (workflow.Path, bool) {
	if len(paths) == 0 {
		return workflow.Path{}, false
	}
	costs := newRange(paths, func(p workflow.Path) float64 { return float64(p.CostUnits) })
	risks := newRange(paths, func(p workflow.Path) float64 { return p.Risk.Overall })
	quals := newRange(paths, func(p workflow.Path) float64 { return p.Quality })
	return best(paths, func(p workflow.Path) float64 {
		return balancedCostWeight*(1-costs.normalize(float64(p.CostUnits))) +
			balancedRiskWeight*(1-risks.normalize(p.Risk.Overall)) +
			balancedQualityWeight*quals.normalize(p.Quality)
	})
}

// Select never recommends; every path is presented for manual choice.
func (UserChoice) Select([]workflow.Path) (workflow.Path, bool) {
	return workflow.Path{}, false
}

// Strategies returns one instance of every strategy, in display order.
func Strategies() []Strategy {
	return []Strategy{Balanced{}, MinimizeCost{}, MinimizeRisk{}, MaximizeQuality{}, UserChoice{}}
}

// ParseStrategy maps a strategy tag to its implementation.
func ParseStrategy(name string) (Strategy, error) {
	normalized := workflow.StrategyName(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range Strategies() {
		if s.Name() == normalized {
			return s, nil
		}
	}
	return nil, fmt.Errorf("optimizer: %q: %w", name, ErrUnknownStrategy)
}

// best returns the path with the highest score, breaking ties on the joined
// node sequence so the result is independent of candidate order.
func best(paths []workflow.Path, score func(workflow.Path) float64) (workflow.Path, bool) {
	if len(paths) == 0 {
		return workflow.Path{}, false
	}
	winner := paths[0]
	top := score(winner)
	for _, p := range paths[1:] {
		s := score(p)
		if s > top || (s == top && p.Key() < winner.Key()) {
			winner, top = p, s
		}
	}
	return winner, true
}

type valueRange struct{ min, max float64 }

func newRange(paths []workflow.Path, value func(workflow.Path) float64) valueRange {
	r := valueRange{min: value(paths[0]), max: value(paths[0])}
	for _, p := range paths[1:] {
		v := value(p)
		if v < r.min {
			r.min = v
		}
		if v > r.max {
			r.max = v
		}
	}
	return r
}

// normalize maps v into [0,1]; a degenerate range maps everything to 0.5.
func (r valueRange) normalize(v float64) float64 {
	if r.max == r.min {
		return 0.5
	}
	return (v - r.min) / (r.max - r.min)
}
