// Package optimizer enumerates every route through a graph definition,
// scores each on cost, risk, and quality, and packages a recommendation as a
// pending approval request.
package optimizer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
	"github.com/kingrea/waypoint/internal/workflow/cost"
	"github.com/kingrea/waypoint/internal/workflow/pathfinder"
	"github.com/kingrea/waypoint/internal/workflow/risk"
)

// Options wires the optimizer's collaborators. Zero values fall back to
// defaults: default pricing, the built-in vocabulary, a fresh registry,
// and the balanced strategy.
type Options struct {
	Pricing            cost.Pricing
	MaxPaths           int
	BaselineCategories []string
	Categories         categories.Provider
	Registry           *approval.Registry
	DefaultStrategy    Strategy
	Metrics            *metrics.Recorder
	Logger             *slog.Logger
}

// Optimizer is stateless apart from the registry it registers requests in,
// and is safe for concurrent use.
type Optimizer struct {
	finder          *pathfinder.Finder
	costs           *cost.Calculator
	risks           *risk.Calculator
	registry        *approval.Registry
	defaultStrategy Strategy
	metrics         *metrics.Recorder
	logger          *slog.Logger
}

// Input describes one optimize call.
type Input struct {
	ProjectID   string
	Domain      string
	RequestedBy string
	Definition  workflow.GraphDefinition
	// Strategy overrides the definition's default strategy when set.
	Strategy Strategy
	// Coverage holds the project's earned category scores.
	Coverage categories.Coverage
}

// New constructs an Optimizer.
func New(opts Options) *Optimizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pricing := opts.Pricing
	if pricing == (cost.Pricing{}) {
		pricing = cost.DefaultPricing()
	}
	provider := opts.Categories
	if provider == nil {
		provider = categories.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = approval.NewRegistry(approval.WithLogger(logger), approval.WithMetrics(opts.Metrics))
	}
	strategy := opts.DefaultStrategy
	if strategy == nil {
		strategy = Balanced{}
	}
	return &Optimizer{
		finder:          pathfinder.New(pathfinder.Options{MaxPaths: opts.MaxPaths, Logger: logger}),
		costs:           cost.New(pricing, logger),
		risks:           risk.New(provider, risk.Options{BaselineCategories: opts.BaselineCategories, Logger: logger}),
		registry:        registry,
		defaultStrategy: strategy,
		metrics:         opts.Metrics,
		logger:          logger,
	}
}

// Registry exposes the approval registry requests are registered in.
func (o *Optimizer) Registry() *approval.Registry {
	return o.registry
}

// Score enumerates and scores every path of def. It fails with
// ErrNoPaths when no end node is reachable.
func (o *Optimizer) Score(def workflow.GraphDefinition, domain string, coverage categories.Coverage) ([]workflow.Path, error) {
	paths, err := o.finder.Find(def)
	if err != nil {
		return nil, fmt.Errorf("optimizer: enumerate %s: %w", def.ID, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("optimizer: graph %s: start %s reaches none of %v: %w", def.ID, def.Start, def.End, workflow.ErrNoPaths)
	}
	scored := make([]workflow.Path, len(paths))
	for i, path := range paths {
		scored[i] = o.scorePath(path, def, domain, coverage)
	}
	return scored, nil
}

func (o *Optimizer) scorePath(path workflow.Path, def workflow.GraphDefinition, domain string, coverage categories.Coverage) workflow.Path {
	est := o.costs.Calculate(path, def)
	assessment := o.risks.Assess(path, def, domain, coverage)
	path.CostUnits = est.Units
	path.CostUSD = est.USD
	path.CostInputUSD = est.InputUSD
	path.CostOutputUSD = est.OutputUSD
	path.CostBreakdown = est.PerNode
	path.Risk = assessment.RiskScore
	path.MissingCategories = assessment.Missing
	path.Quality = Quality(path.Risk)
	path.ExpectedGain = ExpectedGain(path.Risk)
	path.ROI = ROI(path.ExpectedGain, path.CostUnits)
	return path
}

// Optimize scores def, selects a recommendation, and registers a pending
// approval request for it.
func (o *Optimizer) Optimize(in Input) (approval.Request, error) {
	strategy, err := o.strategyFor(in)
	if err != nil {
		o.metrics.ObserveOptimization("unknown", resultLabel(err), 0)
		return approval.Request{}, err
	}
	name := string(strategy.Name())
	paths, err := o.Score(in.Definition, in.Domain, in.Coverage)
	if err != nil {
		o.metrics.ObserveOptimization(name, resultLabel(err), 0)
		o.logger.Error("optimize failed", "graph", in.Definition.ID, "project", in.ProjectID, "error", err)
		return approval.Request{}, err
	}
	req := approval.Request{
		ProjectID:   in.ProjectID,
		Phase:       in.Definition.Phase,
		Domain:      in.Domain,
		Definition:  in.Definition.Clone(),
		Paths:       paths,
		Strategy:    strategy.Name(),
		RequestedBy: in.RequestedBy,
		Status:      approval.StatusPending,
	}
	if rec, ok := strategy.Select(paths); ok {
		req.Recommended = &rec
	}
	registered, err := o.registry.Register(req)
	if err != nil {
		o.metrics.ObserveOptimization(name, resultLabel(err), len(paths))
		return approval.Request{}, fmt.Errorf("optimizer: register: %w", err)
	}
	o.metrics.ObserveOptimization(name, "ok", len(paths))
	attrs := []any{"request", registered.ID, "graph", in.Definition.ID, "strategy", name, "paths", len(paths)}
	if registered.Recommended != nil {
		attrs = append(attrs, "recommended", registered.Recommended.Key())
	}
	o.logger.Info("optimize complete", attrs...)
	return registered, nil
}

func (o *Optimizer) strategyFor(in Input) (Strategy, error) {
	if in.Strategy != nil {
		return in.Strategy, nil
	}
	if in.Definition.Strategy != "" {
		return ParseStrategy(in.Definition.Strategy)
	}
	return o.defaultStrategy, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, workflow.ErrNoPaths):
		return "no_paths"
	case errors.Is(err, workflow.ErrTooManyPaths):
		return "too_many_paths"
	case errors.Is(err, workflow.ErrInvalidDefinition), errors.Is(err, ErrUnknownStrategy):
		return "invalid"
	default:
		return "error"
	}
}
