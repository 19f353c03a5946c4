package skilltree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCyclicPrerequisites marks a tree whose active prerequisite relation is
// not a DAG. Nodes on the cycle can never unlock, so content authors must fix
// the catalog.
var ErrCyclicPrerequisites = errors.New("cyclic prerequisites")

// ValidationError collects every structural problem found in one tree.
type ValidationError struct {
	TreeID   string
	Problems []string
	Cycle    []string // node IDs left unresolved by the topological sort
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("skill tree %q validation failed:\n  %s", e.TreeID, strings.Join(e.Problems, "\n  "))
}

// Is lets errors.Is(err, ErrCyclicPrerequisites) match when a cycle was found.
func (e *ValidationError) Is(target error) bool {
	return target == ErrCyclicPrerequisites && len(e.Cycle) > 0
}

// Validate performs all structural checks on one tree's nodes.
// Returns a *ValidationError describing all problems found, or nil if valid.
func Validate(tree Tree, nodes []Node) error {
	var errs []string

	all := make(map[string]Node, len(nodes))
	active := make(map[string]bool, len(nodes))

	// Check for duplicate IDs and tree membership
	for _, n := range nodes {
		if n.ID == "" {
			errs = append(errs, "node with empty ID")
			continue
		}
		if _, dup := all[n.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate node ID: %q", n.ID))
		}
		all[n.ID] = n
		if n.TreeID != tree.ID {
			errs = append(errs, fmt.Sprintf("node %q belongs to tree %q, not %q", n.ID, n.TreeID, tree.ID))
		}
		if n.Active {
			active[n.ID] = true
		}
	}

	// Check for dangling prerequisites
	for _, n := range nodes {
		for _, prereqID := range n.Prerequisites {
			if _, ok := all[prereqID]; !ok {
				errs = append(errs, fmt.Sprintf("node %q references nonexistent prerequisite %q", n.ID, prereqID))
			}
		}
	}

	// Check rewards
	for _, n := range nodes {
		if n.XPReward < 0 {
			errs = append(errs, fmt.Sprintf("node %q: XPReward must be >= 0, got %d", n.ID, n.XPReward))
		}
		if n.RequiredXP < 0 {
			errs = append(errs, fmt.Sprintf("node %q: RequiredXP must be >= 0, got %d", n.ID, n.RequiredXP))
		}
	}

	cycle := findCycle(nodes, active)
	if len(cycle) > 0 {
		errs = append(errs, fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(cycle, ", ")))
	}

	// Check at least one active root
	if len(active) > 0 {
		hasRoot := false
		for _, n := range nodes {
			if n.Active && len(activePrerequisites(n, active)) == 0 {
				hasRoot = true
				break
			}
		}
		if !hasRoot {
			errs = append(errs, "no root nodes found (at least one active node must have no active prerequisites)")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{TreeID: tree.ID, Problems: errs, Cycle: cycle}
	}
	return nil
}

// findCycle runs Kahn's algorithm over the active nodes and returns the IDs
// that never reach in-degree zero, sorted.
func findCycle(nodes []Node, active map[string]bool) []string {
	inDegree := make(map[string]int, len(active))
	adjList := make(map[string][]string)
	for _, n := range nodes {
		if !active[n.ID] {
			continue
		}
		prereqs := activePrerequisites(n, active)
		inDegree[n.ID] = len(prereqs)
		for _, prereqID := range prereqs {
			adjList[prereqID] = append(adjList[prereqID], n.ID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, depID := range adjList[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}

	if visited == len(inDegree) {
		return nil
	}
	var cycleNodes []string
	for id, deg := range inDegree {
		if deg > 0 {
			cycleNodes = append(cycleNodes, id)
		}
	}
	sort.Strings(cycleNodes)
	return cycleNodes
}

// activePrerequisites drops prerequisites that point at inactive or unknown
// nodes. Duplicates collapse to one edge.
func activePrerequisites(n Node, active map[string]bool) []string {
	var out []string
	seen := make(map[string]bool, len(n.Prerequisites))
	for _, id := range n.Prerequisites {
		if !active[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
