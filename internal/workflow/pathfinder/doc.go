// Package pathfinder enumerates every simple route through a workflow graph.
// It runs one depth-first search per declared end node; each recursive
// branch carries its own copy of the visited set, so sibling branches never
// observe one another's visits.
package pathfinder
