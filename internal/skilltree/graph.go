package skilltree

import (
	"fmt"
	"slices"
	"sort"
)

// Graph holds one tree's active nodes with precomputed indices.
// Inactive nodes are dropped at construction, together with any prerequisite
// edge pointing at them.
type Graph struct {
	tree       Tree
	nodes      []Node
	byID       map[string]*Node
	roots      []Node
	dependents map[string][]string
	topoOrder  []Node
	topoIndex  map[string]int
}

// NewGraph validates the tree and builds its graph, including topological
// order (Kahn's algorithm). A cyclic tree fails with an error matching
// ErrCyclicPrerequisites.
func NewGraph(tree Tree, nodes []Node) (*Graph, error) {
	if err := Validate(tree, nodes); err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.Active {
			active[n.ID] = true
		}
	}

	gr := &Graph{
		tree:       tree,
		byID:       make(map[string]*Node, len(active)),
		dependents: make(map[string][]string),
		topoIndex:  make(map[string]int, len(active)),
	}
	for _, n := range nodes {
		if !n.Active {
			continue
		}
		n.Prerequisites = activePrerequisites(n, active)
		gr.nodes = append(gr.nodes, n)
	}

	// Build ID index
	for i := range gr.nodes {
		gr.byID[gr.nodes[i].ID] = &gr.nodes[i]
	}

	// Build reverse edges (dependents)
	for i := range gr.nodes {
		for _, prereqID := range gr.nodes[i].Prerequisites {
			gr.dependents[prereqID] = append(gr.dependents[prereqID], gr.nodes[i].ID)
		}
	}

	// Topological sort (Kahn's algorithm)
	inDegree := make(map[string]int, len(gr.nodes))
	for i := range gr.nodes {
		inDegree[gr.nodes[i].ID] = len(gr.nodes[i].Prerequisites)
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort initial queue for deterministic ordering
	sort.Strings(queue)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		gr.topoOrder = append(gr.topoOrder, *gr.byID[id])

		sorted := slices.Clone(gr.dependents[id])
		sort.Strings(sorted)
		for _, depID := range sorted {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
	for i, n := range gr.topoOrder {
		gr.topoIndex[n.ID] = i
	}

	for _, n := range gr.topoOrder {
		if len(n.Prerequisites) == 0 {
			gr.roots = append(gr.roots, n)
		}
	}

	return gr, nil
}

// Tree returns the tree this graph was built for.
func (g *Graph) Tree() Tree {
	return g.tree
}

// Node returns an active node by ID, or error if not found.
func (g *Graph) Node(id string) (Node, error) {
	n, ok := g.byID[id]
	if !ok {
		return Node{}, fmt.Errorf("node not found in tree %q: %q", g.tree.ID, id)
	}
	return *n, nil
}

// Has reports whether id is an active node of this tree.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Nodes returns all active nodes in catalog order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// ActiveCount returns the number of active nodes.
func (g *Graph) ActiveCount() int {
	return len(g.nodes)
}

// Roots returns active nodes with no active prerequisites.
func (g *Graph) Roots() []Node {
	return slices.Clone(g.roots)
}

// Prerequisites returns the direct prerequisite nodes for a node ID.
func (g *Graph) Prerequisites(id string) []Node {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	result := make([]Node, 0, len(n.Prerequisites))
	for _, prereqID := range n.Prerequisites {
		if p, ok := g.byID[prereqID]; ok {
			result = append(result, *p)
		}
	}
	return result
}

// Dependents returns nodes that directly depend on the given node ID.
func (g *Graph) Dependents(id string) []Node {
	depIDs := g.dependents[id]
	result := make([]Node, 0, len(depIDs))
	for _, depID := range depIDs {
		if n, ok := g.byID[depID]; ok {
			result = append(result, *n)
		}
	}
	return result
}

// IsUnlocked returns true if every prerequisite of the node is in the
// completed set.
func (g *Graph) IsUnlocked(id string, completed map[string]bool) bool {
	n, ok := g.byID[id]
	if !ok {
		return false
	}
	for _, prereqID := range n.Prerequisites {
		if !completed[prereqID] {
			return false
		}
	}
	return true
}

// AvailableNodes returns nodes that are unlocked but not completed, in
// topological order.
func (g *Graph) AvailableNodes(completed map[string]bool) []Node {
	var result []Node
	for _, n := range g.topoOrder {
		if !completed[n.ID] && g.IsUnlocked(n.ID, completed) {
			result = append(result, n)
		}
	}
	return result
}

// BlockedNodes returns nodes with at least one uncompleted prerequisite.
func (g *Graph) BlockedNodes(completed map[string]bool) []Node {
	var result []Node
	for _, n := range g.topoOrder {
		if !g.IsUnlocked(n.ID, completed) {
			result = append(result, n)
		}
	}
	return result
}

// TopologicalOrder returns all active nodes in a valid topological order.
func (g *Graph) TopologicalOrder() []Node {
	return slices.Clone(g.topoOrder)
}
