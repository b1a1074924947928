package graph

import "sort"

// ParallelExecutableNodes returns the IDs of every node assigned to the
// given dependency level, in lexical order. All nodes of one level are
// mutually independent and may run concurrently.
func (g *Graph) ParallelExecutableNodes(level int) []string {
	var ids []string
	for id, n := range g.Nodes {
		if n.Level == level {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// CanExecute reports whether the node exists and every one of its
// dependencies is in the completed set.
func (g *Graph) CanExecute(id string, completed map[string]struct{}) bool {
	n, ok := g.Nodes[id]
	if !ok {
		return false
	}
	for dep := range n.Dependencies {
		if _, done := completed[dep]; !done {
			return false
		}
	}
	return true
}

// NewlyExecutable returns the dependents of justCompletedID whose
// dependencies are now all satisfied, in lexical order. The
// justCompletedID itself counts as complete whether or not the caller
// has added it to the completed set yet. Dependents already in the
// completed set are not reported again.
func (g *Graph) NewlyExecutable(justCompletedID string, completed map[string]struct{}) []string {
	n, ok := g.Nodes[justCompletedID]
	if !ok {
		return nil
	}

	var ready []string
	for depID := range n.Dependents {
		if _, done := completed[depID]; done {
			continue
		}
		if g.satisfied(depID, justCompletedID, completed) {
			ready = append(ready, depID)
		}
	}
	sort.Strings(ready)
	return ready
}

// satisfied reports whether every dependency of id is complete,
// treating extra as complete.
func (g *Graph) satisfied(id, extra string, completed map[string]struct{}) bool {
	for dep := range g.Nodes[id].Dependencies {
		if dep == extra {
			continue
		}
		if _, done := completed[dep]; !done {
			return false
		}
	}
	return true
}

// DependencyLevels returns the distinct levels present in the graph in
// ascending order.
func (g *Graph) DependencyLevels() []int {
	seen := make(map[int]struct{})
	for _, n := range g.Nodes {
		seen[n.Level] = struct{}{}
	}
	levels := make([]int, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}
