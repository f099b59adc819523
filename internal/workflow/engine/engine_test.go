package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
	"github.com/kingrea/waypoint/internal/workflow/cost"
	"github.com/kingrea/waypoint/internal/workflow/pathfinder"
	"github.com/kingrea/waypoint/internal/workflow/selector"
)

func TestEngineStartPersistsRun(t *testing.T) {
	eng, store, req := newEngineHarness(t)
	run, err := eng.Start(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "start", run.State.CurrentNode)
	assert.Equal(t, workflow.ExecutionActive, run.State.Status)

	stored, err := store.LoadRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, stored.ID)
	assert.Equal(t, req.ChosenPathID, stored.Path.ID)

	archived, err := store.LoadApproval(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, archived.Status)
}

func TestEngineStartDoesNotArchiveWhenRunCannotBegin(t *testing.T) {
	eng, store, req := newEngineHarness(t)
	req.Definition.Start = "check"

	_, err := eng.Start(context.Background(), req)
	require.ErrorIs(t, err, workflow.ErrPathNotFound)

	_, err = store.LoadApproval(context.Background(), req.ID)
	assert.ErrorIs(t, err, workflow.ErrRequestNotFound)
	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngineArchiveStoresResolvedRequests(t *testing.T) {
	eng, store, req := newEngineHarness(t)
	req.Status = approval.StatusRejected
	req.ChosenPathID = ""
	req.Reason = "too costly"
	require.NoError(t, eng.Archive(context.Background(), req))

	archived, err := store.LoadApproval(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, archived.Status)
	assert.Equal(t, "too costly", archived.Reason)

	req.Status = approval.StatusPending
	assert.ErrorIs(t, eng.Archive(context.Background(), req), workflow.ErrInvalidTransition)
}

func TestEngineStartRequiresApproval(t *testing.T) {
	eng, _, req := newEngineHarness(t)
	req.Status = approval.StatusPending
	_, err := eng.Start(context.Background(), req)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)

	req.Status = approval.StatusApproved
	req.ChosenPathID = "missing"
	_, err = eng.Start(context.Background(), req)
	assert.ErrorIs(t, err, workflow.ErrPathNotFound)
}

func TestEngineNextWalksToCompletion(t *testing.T) {
	eng, store, req := newEngineHarness(t)
	ctx := context.Background()
	run, err := eng.Start(ctx, req)
	require.NoError(t, err)

	batch, _, err := eng.Next(ctx, run.ID, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "ask", batch.NodeID)
	require.Len(t, batch.Questions, 1)
	assert.Equal(t, "goal", batch.Questions[0].ID)

	var steps int
	for !batch.Complete {
		steps++
		require.LessOrEqual(t, steps, 10, "run did not complete")
		batch, _, err = eng.Next(ctx, run.ID, nil, 1)
		require.NoError(t, err)
	}
	done, err := store.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ExecutionComplete, done.State.Status)
	assert.Equal(t, 3000, done.State.ActualCostUnits)
	assert.Equal(t, 1.0, done.Summary().Progress)

	again, view, err := eng.Next(ctx, run.ID, nil, 1)
	require.NoError(t, err)
	assert.True(t, again.Complete)
	assert.Equal(t, done.State.CompletedNodes, view.State.CompletedNodes, "completed run changed")
}

func TestEngineAbandon(t *testing.T) {
	eng, _, req := newEngineHarness(t)
	ctx := context.Background()
	run, err := eng.Start(ctx, req)
	require.NoError(t, err)

	abandoned, err := eng.Abandon(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ExecutionAbandoned, abandoned.State.Status)

	_, err = eng.Abandon(ctx, run.ID)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, _, err = eng.Next(ctx, run.ID, nil, 0)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestEngineUnknownRun(t *testing.T) {
	eng, _, _ := newEngineHarness(t)
	_, err := eng.View(context.Background(), "nope")
	assert.ErrorIs(t, err, workflow.ErrRunNotFound)
}

func TestEngineRunsListsInStartOrder(t *testing.T) {
	eng, _, req := newEngineHarness(t)
	ctx := context.Background()
	first, err := eng.Start(ctx, req)
	require.NoError(t, err)
	second, err := eng.Start(ctx, req)
	require.NoError(t, err)

	runs, err := eng.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
}

func TestEngineWritesJournal(t *testing.T) {
	journals, err := logging.NewJournals(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	eng, _, req := newEngineHarness(t, WithJournal(journals))
	ctx := context.Background()
	run, err := eng.Start(ctx, req)
	require.NoError(t, err)
	_, _, err = eng.Next(ctx, run.ID, nil, 0)
	require.NoError(t, err)
	_, err = eng.Abandon(ctx, run.ID)
	require.NoError(t, err)

	entries, total := journals.Run(run.ID).Tail(10)
	require.Equal(t, 4, total)

	started := entries[0]
	assert.Equal(t, logging.EventStarted, started.Event)
	assert.Equal(t, "start", started.Node)
	assert.Equal(t, 3000, started.Remaining)
	assert.Contains(t, started.Message, req.ID)

	advanced := entries[1]
	assert.Equal(t, logging.EventAdvanced, advanced.Event)
	assert.Equal(t, "ask", advanced.Node)
	assert.Equal(t, 0, advanced.Actual)
	assert.Equal(t, 3000, advanced.Remaining)

	asked := entries[2]
	assert.Equal(t, logging.EventAsked, asked.Event)
	assert.Equal(t, 2, asked.Questions)

	abandoned := entries[3]
	assert.Equal(t, logging.EventAbandoned, abandoned.Event)
	assert.Equal(t, logging.LevelWarn, abandoned.Level)
	assert.Equal(t, "ask", abandoned.Node)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, selector.New(nil))
	assert.Error(t, err, "expected error without store")
	_, err = New(NewFileStore(t.TempDir()), nil)
	assert.Error(t, err, "expected error without selector")
}

func newEngineHarness(t *testing.T, opts ...Option) (*Engine, *FileStore, approval.Request) {
	t.Helper()
	def, err := workflow.NewBuilder("intake", "Intake").
		Phase("discovery").
		AddNode(workflow.Node{ID: "start", Type: workflow.NodeTypePhaseStart}).
		AddQuestionSet("ask", "Ask", 2000, []string{"goals"},
			workflow.Question{ID: "goal", Text: "What is the goal?"},
			workflow.Question{ID: "users", Text: "Who are the users?"},
		).
		AddNode(workflow.Node{ID: "check", Type: workflow.NodeTypeValidation, CostUnits: 1000}).
		AddNode(workflow.Node{ID: "end", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("start", "ask").
		AddEdge("ask", "check").
		AddEdge("check", "end").
		Start("start").
		End("end").
		Build()
	require.NoError(t, err)
	paths, err := pathfinder.New(pathfinder.Options{}).Find(def)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	registry := approval.NewRegistry()
	pending, err := registry.Register(approval.Request{
		ProjectID:  "proj",
		Phase:      def.Phase,
		Domain:     "software",
		Definition: def,
		Paths:      paths,
		Strategy:   workflow.StrategyBalanced,
	})
	require.NoError(t, err)
	approved, err := registry.Approve(pending.ID, paths[0].ID, "tester")
	require.NoError(t, err)

	store := NewFileStore(t.TempDir())
	tick := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	sel := selector.New(cost.New(cost.DefaultPricing(), nil), selector.WithClock(clock))
	eng, err := New(store, sel, append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return eng, store, approved
}
