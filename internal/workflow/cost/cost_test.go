package cost

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/pathfinder"
)

func linearGraph(t *testing.T) workflow.GraphDefinition {
	t.Helper()
	def, err := workflow.NewBuilder("linear", "Linear").
		AddNode(workflow.Node{ID: "start", Type: workflow.NodeTypePhaseStart}).
		AddQuestionSet("ask", "Ask", 5000, []string{"goals"}).
		AddNode(workflow.Node{ID: "check", Type: workflow.NodeTypeValidation, CostUnits: 1500}).
		AddNode(workflow.Node{ID: "end", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("start", "ask").
		AddWeightedEdge(workflow.Edge{From: "ask", To: "check", CostUnits: 200}).
		AddWeightedEdge(workflow.Edge{From: "check", To: "end", CostUnits: 300}).
		Start("start").
		End("end").
		Build()
	require.NoError(t, err)
	return def
}

func onlyPath(t *testing.T, def workflow.GraphDefinition) workflow.Path {
	t.Helper()
	paths, err := pathfinder.New(pathfinder.Options{}).Find(def)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	return paths[0]
}

func TestCalculateIsAdditive(t *testing.T) {
	def := linearGraph(t)
	path := onlyPath(t, def)
	est := New(DefaultPricing(), nil).Calculate(path, def)

	assert.Equal(t, 6500, est.NodeUnits)
	assert.Equal(t, 500, est.EdgeUnits)
	assert.Equal(t, 7000, est.Units)
	assert.Equal(t, map[string]int{"start": 0, "ask": 5000, "check": 1500, "end": 0}, est.PerNode)
	assert.InDelta(t, 7000*9.0/1e6, est.USD, 1e-12)
	assert.InDelta(t, 7000*0.5*3.0/1e6, est.InputUSD, 1e-12)
	assert.InDelta(t, 7000*0.5*15.0/1e6, est.OutputUSD, 1e-12)
	assert.InDelta(t, est.USD, est.AsymmetricUSD(), 1e-12, "default rates blend to the average")
}

func TestCalculateIsPure(t *testing.T) {
	def := linearGraph(t)
	path := onlyPath(t, def)
	calc := New(DefaultPricing(), nil)
	assert.Equal(t, calc.Calculate(path, def), calc.Calculate(path, def))
}

func TestCalculateLinearGraph(t *testing.T) {
	def, err := workflow.NewBuilder("three", "Three").
		AddNode(workflow.Node{ID: "start", Type: workflow.NodeTypePhaseStart}).
		AddQuestionSet("ask", "Ask", 5000, []string{"goals"}).
		AddNode(workflow.Node{ID: "end", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("start", "ask").
		AddEdge("ask", "end").
		Start("start").
		End("end").
		Build()
	require.NoError(t, err)
	est := New(DefaultPricing(), nil).Calculate(onlyPath(t, def), def)
	assert.Equal(t, 5000, est.Units)
}

func TestCalculateDegradesOnDanglingEdge(t *testing.T) {
	def := linearGraph(t)
	path := onlyPath(t, def)
	def.Edges = def.Edges[:2]

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	est := New(DefaultPricing(), logger).Calculate(path, def)

	assert.Equal(t, 6700, est.Units)
	assert.Contains(t, buf.String(), "edge not found")
	assert.Contains(t, buf.String(), "from=check")
}

func TestCalculateResolvesEdgesBetweenHyphenatedNodes(t *testing.T) {
	// a -> b-c and a-b -> c share the "a-b-c" label but are distinct edges.
	def, err := workflow.NewBuilder("hyphens", "Hyphens").
		AddNode(workflow.Node{ID: "a", Type: workflow.NodeTypePhaseStart}).
		AddNode(workflow.Node{ID: "a-b", Type: workflow.NodeTypeAnalysis}).
		AddNode(workflow.Node{ID: "b-c", Type: workflow.NodeTypeAnalysis}).
		AddNode(workflow.Node{ID: "c", Type: workflow.NodeTypePhaseEnd}).
		AddWeightedEdge(workflow.Edge{From: "a", To: "b-c", CostUnits: 10}).
		AddWeightedEdge(workflow.Edge{From: "b-c", To: "c", CostUnits: 20}).
		AddWeightedEdge(workflow.Edge{From: "a", To: "a-b", CostUnits: 300}).
		AddWeightedEdge(workflow.Edge{From: "a-b", To: "c", CostUnits: 4000}).
		Start("a").
		End("c").
		Build()
	require.NoError(t, err)

	paths, err := pathfinder.New(pathfinder.Options{}).Find(def)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	calc := New(DefaultPricing(), nil)
	units := map[string]int{}
	for _, path := range paths {
		units[path.Key()] = calc.Calculate(path, def).EdgeUnits
	}
	assert.Equal(t, map[string]int{"a>b-c>c": 30, "a>a-b>c": 4300}, units)

	long := paths[1]
	require.Equal(t, "a>a-b>c", long.Key())
	assert.Equal(t, 4000, calc.Remaining(long, def, 1))
}

func TestRemainingCountsCursorNodeAndTail(t *testing.T) {
	def := linearGraph(t)
	path := onlyPath(t, def)
	calc := New(DefaultPricing(), nil)

	assert.Equal(t, 7000, calc.Remaining(path, def, 0))
	assert.Equal(t, 7000, calc.Remaining(path, def, 1))
	assert.Equal(t, 1800, calc.Remaining(path, def, 2))
	assert.Equal(t, 0, calc.Remaining(path, def, 3))
}

func TestPricingValidate(t *testing.T) {
	assert.NoError(t, DefaultPricing().Validate())
	bad := DefaultPricing()
	bad.InputShare = 1.5
	assert.Error(t, bad.Validate())
	bad = DefaultPricing()
	bad.OutputPerMillion = -1
	assert.Error(t, bad.Validate())
}
