package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
	"github.com/kingrea/waypoint/internal/workflow/selector"
)

// Engine starts runs from approved requests and walks them forward while
// persisting every snapshot.
type Engine struct {
	store    Store
	selector *selector.Selector
	clock    func() time.Time
	logger   *slog.Logger
	journals *logging.Journals
	metrics  *metrics.Recorder
	newID    func() string
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJournal records the events of each run in its own journal.
func WithJournal(journals *logging.Journals) Option {
	return func(e *Engine) {
		e.journals = journals
	}
}

// WithMetrics counts run transitions.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = rec
	}
}

// New wires an engine to its persistence store and question selector.
func New(store Store, sel *selector.Selector, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if sel == nil {
		return nil, fmt.Errorf("engine: selector is required")
	}
	e := &Engine{
		store:    store,
		selector: sel,
		clock:    time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start creates and persists a run on the path chosen in req. The request
// must be approved; it is archived alongside the run.
func (e *Engine) Start(ctx context.Context, req approval.Request) (Run, error) {
	if req.Status != approval.StatusApproved {
		return Run{}, fmt.Errorf("engine: request %s is %s, not approved: %w", req.ID, req.Status, workflow.ErrInvalidTransition)
	}
	path, ok := req.ChosenPath()
	if !ok {
		return Run{}, fmt.Errorf("engine: request %s chosen path %q: %w", req.ID, req.ChosenPathID, workflow.ErrPathNotFound)
	}
	id := e.newID()
	state, err := e.selector.Begin(id, req.Domain, req.Definition, path)
	if err != nil {
		return Run{}, err
	}
	if err := e.store.SaveApproval(ctx, req); err != nil {
		return Run{}, fmt.Errorf("engine: archive approval %s: %w", req.ID, err)
	}
	run := Run{
		ID:         id,
		RequestID:  req.ID,
		ProjectID:  req.ProjectID,
		ApprovedBy: req.ResolvedBy,
		Definition: req.Definition.Clone(),
		Path:       path.Clone(),
		State:      state,
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		return Run{}, fmt.Errorf("engine: save run %s: %w", id, err)
	}
	e.metrics.ObserveRun("started")
	e.journals.Run(id).Record(logging.Entry{
		Event:     logging.EventStarted,
		Node:      state.CurrentNode,
		Actual:    state.ActualCostUnits,
		Remaining: state.RemainingCostUnits,
		Message:   fmt.Sprintf("graph %s, request %s, path %s", req.Definition.ID, req.ID, path.Key()),
	})
	e.logger.Info("run started", "run", id, "graph", req.Definition.ID, "path", path.ID, "request", req.ID)
	return run, nil
}

// Archive persists a resolved request that did not start a run, such as a
// rejection. Pending requests are refused.
func (e *Engine) Archive(ctx context.Context, req approval.Request) error {
	if req.Status == approval.StatusPending {
		return fmt.Errorf("engine: request %s is still pending: %w", req.ID, workflow.ErrInvalidTransition)
	}
	if err := e.store.SaveApproval(ctx, req); err != nil {
		return fmt.Errorf("engine: archive approval %s: %w", req.ID, err)
	}
	e.logger.Info("approval archived", "request", req.ID, "status", req.Status)
	return nil
}

// Next hands out the next batch of questions for runID, advancing the
// cursor when the current node is exhausted. Completed runs report
// Complete without being rewritten.
func (e *Engine) Next(ctx context.Context, runID string, coverage categories.Coverage, limit int) (selector.Batch, Run, error) {
	run, err := e.store.LoadRun(ctx, runID)
	if err != nil {
		return selector.Batch{}, Run{}, err
	}
	if run.State.Status == workflow.ExecutionComplete {
		return selector.Batch{NodeID: run.State.CurrentNode, Complete: true}, run, nil
	}
	batch, state, err := e.selector.Next(coverage, run.Definition, run.Path, run.State, limit)
	if err != nil {
		e.journals.Run(runID).Record(logging.Entry{
			Level:     logging.LevelWarn,
			Event:     logging.EventRejected,
			Node:      run.State.CurrentNode,
			Actual:    run.State.ActualCostUnits,
			Remaining: run.State.RemainingCostUnits,
			Message:   err.Error(),
		})
		return selector.Batch{}, run, err
	}
	run.State = state
	if err := e.store.SaveRun(ctx, run); err != nil {
		return selector.Batch{}, Run{}, fmt.Errorf("engine: save run %s: %w", runID, err)
	}
	journal := e.journals.Run(runID)
	at := logging.Entry{Node: batch.NodeID, Actual: state.ActualCostUnits, Remaining: state.RemainingCostUnits}
	if batch.Advanced {
		e.metrics.ObserveRun("advanced")
		at.Event = logging.EventAdvanced
		journal.Record(at)
	}
	if len(batch.Questions) > 0 {
		asked := at
		asked.Event = logging.EventAsked
		asked.Questions = len(batch.Questions)
		journal.Record(asked)
	}
	if batch.Complete {
		e.metrics.ObserveRun("completed")
		at.Event = logging.EventCompleted
		journal.Record(at)
		e.logger.Info("run complete", "run", runID, "node", batch.NodeID, "cost_units", state.ActualCostUnits)
	}
	return batch, run, nil
}

// View returns the last persisted snapshot of a run.
func (e *Engine) View(ctx context.Context, runID string) (Run, error) {
	return e.store.LoadRun(ctx, runID)
}

// Runs lists every stored run.
func (e *Engine) Runs(ctx context.Context) ([]Run, error) {
	return e.store.ListRuns(ctx)
}

// Abandon stops an active run. Terminal runs cannot be abandoned.
func (e *Engine) Abandon(ctx context.Context, runID string) (Run, error) {
	run, err := e.store.LoadRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if run.State.Terminal() {
		return Run{}, fmt.Errorf("engine: run %s is %s: %w", runID, run.State.Status, workflow.ErrInvalidTransition)
	}
	run.State.Status = workflow.ExecutionAbandoned
	run.State.UpdatedAt = e.now().UTC()
	if err := e.store.SaveRun(ctx, run); err != nil {
		return Run{}, fmt.Errorf("engine: save run %s: %w", runID, err)
	}
	e.metrics.ObserveRun("abandoned")
	e.journals.Run(runID).Record(logging.Entry{
		Level:     logging.LevelWarn,
		Event:     logging.EventAbandoned,
		Node:      run.State.CurrentNode,
		Actual:    run.State.ActualCostUnits,
		Remaining: run.State.RemainingCostUnits,
	})
	e.logger.Info("run abandoned", "run", runID, "node", run.State.CurrentNode)
	return run, nil
}

func (e *Engine) now() time.Time {
	if e.clock == nil {
		return time.Now()
	}
	return e.clock()
}
