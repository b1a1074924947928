package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a single vertex in the execution graph, derived from one
// pipeline node instance. Dependency and dependent sets hold node IDs.
type Node struct {
	// ID is the unique identifier of the pipeline node.
	ID string
	// Dependencies is the set of node IDs this node consumes from.
	Dependencies map[string]struct{}
	// Dependents is the set of node IDs that consume this node's output.
	Dependents map[string]struct{}
	// Level is the dependency depth: 0 for roots, otherwise
	// max(level of dependencies)+1.
	Level int
}

// Graph is the validated execution graph for one pipeline. It is
// immutable after Build; completion state lives with the caller and is
// passed into every query.
type Graph struct {
	// Nodes stores all nodes, keyed by their unique ID.
	Nodes map[string]*Node
	// ExecutionOrder is a linear extension of the dependency partial
	// order: every node appears after all of its dependencies.
	ExecutionOrder []string

	// order preserves the input order of node declarations so that
	// traversal and level assignment are deterministic across runs.
	order []string
}

// Node returns the node with the given ID, if present.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// CycleError reports a circular dependency. Path holds the node IDs
// along the cycle, closed (first and last entries are the same node).
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// sortedIDs returns the members of a node-ID set in lexical order.
func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
