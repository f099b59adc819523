package risk

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/pathfinder"
)

func vocabulary(cats map[string]float64) categories.Vocabulary {
	return categories.Vocabulary{Domains: map[string]map[string]map[string]float64{
		"software": {"discovery": cats},
	}}
}

func threeNodeGraph(t *testing.T) workflow.GraphDefinition {
	t.Helper()
	def, err := workflow.NewBuilder("three", "Three").
		Phase("discovery").
		AddNode(workflow.Node{ID: "start", Type: workflow.NodeTypePhaseStart}).
		AddQuestionSet("ask", "Ask", 5000, []string{"goals"}).
		AddNode(workflow.Node{ID: "end", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("start", "ask").
		AddEdge("ask", "end").
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

func TestAssessHalfCoveredDomain(t *testing.T) {
	def := threeNodeGraph(t)
	calc := New(vocabulary(map[string]float64{"goals": 1, "scope": 1}), Options{})

	got := calc.Assess(onlyPath(t, def), def, "software", nil)

	assert.InDelta(t, 50.0, got.Incompleteness, 1e-9)
	assert.InDelta(t, 15.0, got.Complexity, 1e-9)
	// 50*0.8 + min(20, 2*3) + 5*1
	assert.InDelta(t, 51.0, got.Rework, 1e-9)
	assert.InDelta(t, 0.4*50+0.3*15+0.3*51, got.Overall, 1e-9)
	assert.Equal(t, []string{"scope"}, got.Missing)
	assert.False(t, got.Degraded)
}

func TestAssessEmptyCategorySetHasNoIncompleteness(t *testing.T) {
	def := threeNodeGraph(t)
	calc := New(vocabulary(map[string]float64{}), Options{})

	got := calc.Assess(onlyPath(t, def), def, "software", nil)

	assert.Zero(t, got.Incompleteness)
	assert.Empty(t, got.Missing)
}

func TestAssessBaselineCountsForQuestionSets(t *testing.T) {
	def := threeNodeGraph(t)
	vocab := vocabulary(map[string]float64{"goals": 1, "constraints": 1})

	withBaseline := New(vocab, Options{}).Assess(onlyPath(t, def), def, "software", nil)
	assert.Zero(t, withBaseline.Incompleteness)

	without := New(vocab, Options{BaselineCategories: []string{}}).Assess(onlyPath(t, def), def, "software", nil)
	assert.InDelta(t, 50.0, without.Incompleteness, 1e-9)
	assert.Equal(t, []string{"constraints"}, without.Missing)
}

func TestAssessHonoursSatisfiedCoverage(t *testing.T) {
	def := threeNodeGraph(t)
	calc := New(vocabulary(map[string]float64{"goals": 1, "scope": 0.6}), Options{})
	path := onlyPath(t, def)

	partial := calc.Assess(path, def, "software", categories.Coverage{"scope": 0.4})
	assert.Equal(t, []string{"scope"}, partial.Missing)

	full := calc.Assess(path, def, "software", categories.Coverage{"scope": 0.6})
	assert.Empty(t, full.Missing)
	assert.Zero(t, full.Incompleteness)
}

func TestAssessFullIncompletenessOnlyWithoutCoverage(t *testing.T) {
	def, err := workflow.NewBuilder("bare", "Bare").
		Phase("discovery").
		AddNode(workflow.Node{ID: "start", Type: workflow.NodeTypePhaseStart}).
		AddNode(workflow.Node{ID: "end", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("start", "end").
		Start("start").
		End("end").
		Build()
	require.NoError(t, err)

	got := New(vocabulary(map[string]float64{"goals": 1, "scope": 1}), Options{}).
		Assess(onlyPath(t, def), def, "software", nil)

	assert.InDelta(t, 100.0, got.Incompleteness, 1e-9)
	assert.Equal(t, []string{"goals", "scope"}, got.Missing)
	assert.LessOrEqual(t, got.Rework, 100.0)
}

type offlineProvider struct{ err error }

func (p offlineProvider) Categories(string, string) (map[string]float64, error) {
	return nil, p.err
}

func TestAssessDegradesWhenProviderFails(t *testing.T) {
	def := threeNodeGraph(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	got := New(offlineProvider{err: errors.New("vocabulary offline")}, Options{Logger: logger}).Assess(onlyPath(t, def), def, "software", nil)

	assert.True(t, got.Degraded)
	assert.Equal(t, DegradedScore, got.Overall)
	assert.Equal(t, DegradedScore, got.Incompleteness)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "vocabulary offline")
}

func TestAssessDegradesForUnknownDomain(t *testing.T) {
	def := threeNodeGraph(t)
	got := New(categories.Default(), Options{}).Assess(onlyPath(t, def), def, "astrology", nil)
	assert.True(t, got.Degraded)
}

func TestComplexityIsCapped(t *testing.T) {
	b := workflow.NewBuilder("long", "Long").
		AddNode(workflow.Node{ID: "n0", Type: workflow.NodeTypePhaseStart})
	prev := "n0"
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("n%d", i)
		b.AddNode(workflow.Node{ID: id, Type: workflow.NodeTypeAnalysis}).AddEdge(prev, id)
		prev = id
	}
	def, err := b.Start("n0").End(prev).Build()
	require.NoError(t, err)

	assert.Equal(t, 100.0, Complexity(onlyPath(t, def), def))
}

func TestComplexityWeights(t *testing.T) {
	def, err := workflow.NewBuilder("mix", "Mix").
		AddNode(workflow.Node{ID: "s", Type: workflow.NodeTypePhaseStart}).
		AddQuestionSet("q", "Q", 0, []string{"a", "b"}).
		AddNode(workflow.Node{ID: "an", Type: workflow.NodeTypeAnalysis}).
		AddNode(workflow.Node{ID: "d", Type: workflow.NodeTypeDecision}).
		AddNode(workflow.Node{ID: "v", Type: workflow.NodeTypeValidation}).
		AddNode(workflow.Node{ID: "e", Type: workflow.NodeTypePhaseEnd}).
		AddEdge("s", "q").AddEdge("q", "an").AddEdge("an", "d").AddEdge("d", "v").AddEdge("v", "e").
		Start("s").
		End("e").
		Build()
	require.NoError(t, err)

	// 20 + 15 + 10 + 5
	assert.Equal(t, 50.0, Complexity(onlyPath(t, def), def))
}

func TestReworkComponents(t *testing.T) {
	assert.Equal(t, 0.0, Rework(0, 0, 0))
	assert.Equal(t, 20.0, Rework(0, 50, 0), "length contribution saturates")
	assert.Equal(t, 100.0, Rework(100, 20, 5))
	assert.InDelta(t, 16+4+5, Rework(20, 2, 1), 1e-9)
}
