package skilltree

import (
	"errors"
	"testing"
)

var statics = Tree{ID: "mech-statics", Name: "Statics", Discipline: "mechanical", Active: true}

// staticsNodes is a small diamond with an inactive node hanging off it:
//
//	forces -> moments -> equilibrium
//	forces -> vectors -> equilibrium
//	equilibrium -> trusses (inactive)
func staticsNodes() []Node {
	return []Node{
		{ID: "forces", TreeID: "mech-statics", Type: NodeFoundation, XPReward: 10, Active: true},
		{ID: "moments", TreeID: "mech-statics", Type: NodeCore, XPReward: 20, Prerequisites: []string{"forces"}, Active: true},
		{ID: "vectors", TreeID: "mech-statics", Type: NodeCore, XPReward: 20, Prerequisites: []string{"forces"}, Active: true},
		{ID: "equilibrium", TreeID: "mech-statics", Type: NodeAdvanced, XPReward: 40, Prerequisites: []string{"moments", "vectors"}, Active: true},
		{ID: "trusses", TreeID: "mech-statics", Type: NodeAdvanced, XPReward: 40, Prerequisites: []string{"equilibrium"}, Active: false},
	}
}

func mustGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(statics, staticsNodes())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestNewGraph_DropsInactiveNodes(t *testing.T) {
	g := mustGraph(t)
	if g.ActiveCount() != 4 {
		t.Errorf("got %d active nodes, want 4", g.ActiveCount())
	}
	if g.Has("trusses") {
		t.Error("inactive node trusses should not be in the graph")
	}
	if _, err := g.Node("trusses"); err == nil {
		t.Error("expected error looking up inactive node")
	}
}

func TestNewGraph_RejectsCycle(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "t", Active: true},
		{ID: "b", TreeID: "t", Prerequisites: []string{"a", "c"}, Active: true},
		{ID: "c", TreeID: "t", Prerequisites: []string{"b"}, Active: true},
	}
	_, err := NewGraph(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for cyclic tree, got nil")
	}
	if !errors.Is(err, ErrCyclicPrerequisites) {
		t.Errorf("error should match ErrCyclicPrerequisites, got: %v", err)
	}
}

func TestRoots(t *testing.T) {
	roots := mustGraph(t).Roots()
	if len(roots) != 1 || roots[0].ID != "forces" {
		t.Errorf("got roots %v, want [forces]", roots)
	}
}

func TestPrerequisitesAndDependents(t *testing.T) {
	g := mustGraph(t)

	prereqs := g.Prerequisites("equilibrium")
	if len(prereqs) != 2 {
		t.Fatalf("equilibrium: got %d prereqs, want 2", len(prereqs))
	}
	ids := map[string]bool{}
	for _, p := range prereqs {
		ids[p.ID] = true
	}
	if !ids["moments"] || !ids["vectors"] {
		t.Errorf("equilibrium prereqs: got %v", ids)
	}

	deps := g.Dependents("forces")
	if len(deps) != 2 {
		t.Errorf("forces: got %d dependents, want 2", len(deps))
	}

	// Edge to the inactive node is gone.
	if deps := g.Dependents("equilibrium"); len(deps) != 0 {
		t.Errorf("equilibrium: got %d dependents, want 0", len(deps))
	}
}

func TestIsUnlocked(t *testing.T) {
	g := mustGraph(t)
	empty := map[string]bool{}

	if !g.IsUnlocked("forces", empty) {
		t.Error("root forces should be unlocked with empty completed set")
	}
	if g.IsUnlocked("moments", empty) {
		t.Error("moments should be locked with empty completed set")
	}
	if g.IsUnlocked("equilibrium", map[string]bool{"forces": true, "moments": true}) {
		t.Error("equilibrium should be locked with only one of two prereqs")
	}
	if !g.IsUnlocked("equilibrium", map[string]bool{"moments": true, "vectors": true}) {
		t.Error("equilibrium should be unlocked with both prereqs completed")
	}
	if g.IsUnlocked("nonexistent", empty) {
		t.Error("unknown node should never be unlocked")
	}
}

func TestAvailableAndBlockedNodes(t *testing.T) {
	g := mustGraph(t)
	completed := map[string]bool{"forces": true}

	available := g.AvailableNodes(completed)
	if len(available) != 2 {
		t.Fatalf("got %d available, want 2", len(available))
	}
	for _, n := range available {
		if n.ID != "moments" && n.ID != "vectors" {
			t.Errorf("unexpected available node %q", n.ID)
		}
	}

	blocked := g.BlockedNodes(completed)
	if len(blocked) != 1 || blocked[0].ID != "equilibrium" {
		t.Errorf("got blocked %v, want [equilibrium]", blocked)
	}
}

func TestTopologicalOrder(t *testing.T) {
	topo := mustGraph(t).TopologicalOrder()
	if len(topo) != 4 {
		t.Fatalf("got %d nodes in topo order, want 4", len(topo))
	}

	posMap := make(map[string]int, len(topo))
	for i, n := range topo {
		posMap[n.ID] = i
	}
	for _, n := range topo {
		for _, prereqID := range n.Prerequisites {
			if posMap[prereqID] >= posMap[n.ID] {
				t.Errorf("node %q (pos %d) appears before prerequisite %q (pos %d)",
					n.ID, posMap[n.ID], prereqID, posMap[prereqID])
			}
		}
	}

	// Ties break alphabetically.
	if topo[1].ID != "moments" || topo[2].ID != "vectors" {
		t.Errorf("got order %s,%s, want moments,vectors", topo[1].ID, topo[2].ID)
	}
}

func TestNodes_ReturnsCopy(t *testing.T) {
	g := mustGraph(t)
	a := g.Nodes()
	a[0].Name = "MUTATED"
	if g.Nodes()[0].Name == "MUTATED" {
		t.Error("Nodes returned the graph's backing slice")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusLocked, StatusAvailable, true},
		{StatusAvailable, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusLocked, StatusCompleted, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusAvailable, false},
		{StatusAvailable, StatusLocked, false},
		{StatusInProgress, StatusAvailable, false},
		{StatusLocked, Status("bogus"), false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
