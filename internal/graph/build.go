package graph

import (
	"context"
	"fmt"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/pipeline"
)

// Build constructs a complete, validated execution graph from pipeline
// nodes and connections. The graph is rebuilt from scratch on every
// call; no partial graph is ever returned on error.
func Build(ctx context.Context, nodes []*pipeline.NodeInstance, conns []*pipeline.Connection) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")
	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: create all nodes.
	if err := createNodes(nodes, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link dependency edges from connections.
	if err := linkEdges(conns, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Edge linking complete.", "connection_count", len(conns))

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	// Third pass: assign levels and derive the execution order.
	graph.assignLevels()
	logger.Debug("Build: Level assignment complete.", "order_length", len(graph.ExecutionOrder))

	logger.Debug("Build: Graph construction successful.")
	return graph, nil
}

// createNodes performs the first pass of graph creation.
func createNodes(nodes []*pipeline.NodeInstance, graph *Graph) error {
	for _, n := range nodes {
		if _, exists := graph.Nodes[n.ID]; exists {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		graph.Nodes[n.ID] = &Node{
			ID:           n.ID,
			Dependencies: make(map[string]struct{}),
			Dependents:   make(map[string]struct{}),
		}
		graph.order = append(graph.order, n.ID)
	}
	return nil
}

// linkEdges performs the second pass, establishing dependency links.
// The target of a connection gains a dependency on its source. Edges
// between the same node pair collapse into one; repeating the exact
// (source, sourceHandle, target, targetHandle) tuple is an error.
func linkEdges(conns []*pipeline.Connection, graph *Graph) error {
	seen := make(map[[4]string]struct{}, len(conns))
	for _, c := range conns {
		tuple := c.Tuple()
		if _, dup := seen[tuple]; dup {
			return fmt.Errorf("duplicate connection %s.%s -> %s.%s", c.Source, c.SourceHandle, c.Target, c.TargetHandle)
		}
		seen[tuple] = struct{}{}

		src, ok := graph.Nodes[c.Source]
		if !ok {
			return fmt.Errorf("connection %q references unknown source node %q", c.ID, c.Source)
		}
		tgt, ok := graph.Nodes[c.Target]
		if !ok {
			return fmt.Errorf("connection %q references unknown target node %q", c.ID, c.Target)
		}
		if c.Source == c.Target {
			return &CycleError{Path: []string{c.Source, c.Source}}
		}

		tgt.Dependencies[src.ID] = struct{}{}
		src.Dependents[tgt.ID] = struct{}{}
	}
	return nil
}

// detectCycles checks for circular dependencies in the graph using DFS,
// tracking the traversal path so the reported cycle names every node on
// it.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var path []string

	var visit func(id string) *CycleError
	visit = func(id string) *CycleError {
		visiting[id] = true
		path = append(path, id)
		for _, next := range sortedIDs(g.Nodes[id].Dependents) {
			if visiting[next] {
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), next)
				return &CycleError{Path: cycle}
			}
			if !visited[next] {
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		delete(visiting, id)
		visited[id] = true
		return nil
	}

	for _, id := range g.order {
		if !visited[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// assignLevels computes dependency levels by topological relaxation and
// records the pop order as ExecutionOrder. A node is leveled only once
// all of its dependencies have been, so shared subpaths are visited a
// single time regardless of how many routes reach them.
func (g *Graph) assignLevels() {
	pending := make(map[string]int, len(g.Nodes))
	var queue []string
	for _, id := range g.order {
		pending[id] = len(g.Nodes[id].Dependencies)
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	g.ExecutionOrder = make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		g.ExecutionOrder = append(g.ExecutionOrder, id)

		n := g.Nodes[id]
		for _, depID := range sortedIDs(n.Dependents) {
			dep := g.Nodes[depID]
			if n.Level+1 > dep.Level {
				dep.Level = n.Level + 1
			}
			pending[depID]--
			if pending[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
}
