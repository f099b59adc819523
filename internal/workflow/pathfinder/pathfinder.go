package pathfinder

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kingrea/waypoint/internal/workflow"
)

// DefaultMaxPaths bounds enumeration when no explicit limit is configured.
const DefaultMaxPaths = 10000

// Options tunes enumeration.
type Options struct {
	// MaxPaths caps the number of paths returned. Values <= 0 fall back to
	// DefaultMaxPaths. Exceeding the cap is a configuration error.
	MaxPaths int
	Logger   *slog.Logger
}

// Finder enumerates paths for graph definitions. It holds no per-graph state
// and is safe for concurrent use.
type Finder struct {
	maxPaths int
	logger   *slog.Logger
}

// New constructs a Finder.
func New(opts Options) *Finder {
	limit := opts.MaxPaths
	if limit <= 0 {
		limit = DefaultMaxPaths
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Finder{maxPaths: limit, logger: logger}
}

// Find returns every simple path from the start node to each end node, grouped
// by end node in declaration order. Unreachable nodes contribute nothing and
// are not an error; an empty result is returned as-is for the caller to judge.
func (f *Finder) Find(def workflow.GraphDefinition) ([]workflow.Path, error) {
	if def.Start == "" {
		return nil, fmt.Errorf("pathfinder: graph %s has no start node: %w", def.ID, workflow.ErrInvalidDefinition)
	}
	if len(def.End) == 0 {
		return nil, fmt.Errorf("pathfinder: graph %s has no end nodes: %w", def.ID, workflow.ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	w := newWalker(def, f.maxPaths)
	for _, end := range def.End {
		if err := w.walk(def.Start, end); err != nil {
			return nil, err
		}
	}
	f.logger.Debug("paths enumerated", "graph", def.ID, "count", len(w.paths), "expansions", w.expansions)
	return w.paths, nil
}

type walker struct {
	graphID    string
	adjacency  map[string][]string
	reverse    map[string][]string
	target     string
	reach      map[string]struct{}
	limit      int
	budget     int
	expansions int
	paths      []workflow.Path
}

func newWalker(def workflow.GraphDefinition, limit int) *walker {
	nodes := len(def.Nodes)
	if nodes == 0 {
		nodes = 1
	}
	forward, reverse := adjacency(def)
	return &walker{
		graphID:   def.ID,
		adjacency: forward,
		reverse:   reverse,
		limit:     limit,
		budget:    (limit + 1) * nodes,
	}
}

// walk collects the paths from start to target. Nodes that cannot reach the
// target are never entered.
func (w *walker) walk(start, target string) error {
	w.target = target
	w.reach = reaching(w.reverse, target)
	if _, ok := w.reach[start]; !ok {
		return nil
	}
	return w.visit(start, nil, nil, nil)
}

// visit explores from current. visited, nodes, and edges belong to the
// caller's branch and are copied before being extended.
func (w *walker) visit(current string, visited map[string]struct{}, nodes, edges []string) error {
	w.expansions++
	if w.expansions > w.budget {
		return fmt.Errorf("pathfinder: graph %s needs more than %d expansions for %d paths: %w", w.graphID, w.budget, w.limit, workflow.ErrTooManyPaths)
	}
	branch := make(map[string]struct{}, len(visited)+1)
	for id := range visited {
		branch[id] = struct{}{}
	}
	branch[current] = struct{}{}
	nodes = extend(nodes, current)

	if current == w.target {
		if len(w.paths) >= w.limit {
			return fmt.Errorf("pathfinder: graph %s yields more than %d paths: %w", w.graphID, w.limit, workflow.ErrTooManyPaths)
		}
		w.paths = append(w.paths, workflow.NewPath(w.graphID, nodes, edges))
		return nil
	}
	for _, next := range w.adjacency[current] {
		if _, seen := branch[next]; seen {
			continue
		}
		if _, ok := w.reach[next]; !ok {
			continue
		}
		if err := w.visit(next, branch, nodes, extend(edges, workflow.EdgeID(current, next))); err != nil {
			return err
		}
	}
	return nil
}

// reaching returns every node with a route to target, target included.
func reaching(reverse map[string][]string, target string) map[string]struct{} {
	reach := map[string]struct{}{target: {}}
	queue := []string{target}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, prev := range reverse[id] {
			if _, ok := reach[prev]; ok {
				continue
			}
			reach[prev] = struct{}{}
			queue = append(queue, prev)
		}
	}
	return reach
}

func adjacency(def workflow.GraphDefinition) (forward, reverse map[string][]string) {
	forward = make(map[string][]string, len(def.Nodes))
	reverse = make(map[string][]string, len(def.Nodes))
	for _, edge := range def.Edges {
		forward[edge.From] = append(forward[edge.From], edge.To)
		reverse[edge.To] = append(reverse[edge.To], edge.From)
	}
	return forward, reverse
}

func extend(values []string, next string) []string {
	out := make([]string, len(values), len(values)+1)
	copy(out, values)
	return append(out, next)
}
