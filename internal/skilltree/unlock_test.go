package skilltree

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func progressWith(statuses map[string]Status) map[string]Progress {
	out := make(map[string]Progress, len(statuses))
	for id, s := range statuses {
		out[id] = Progress{UserID: "u1", NodeID: id, TreeID: "mech-statics", Status: s}
	}
	return out
}

func TestInitialProgress(t *testing.T) {
	g := mustGraph(t)
	initial := InitialProgress(g, "u1", now)

	if len(initial) != 4 {
		t.Fatalf("got %d entries, want 4", len(initial))
	}
	if initial["forces"].Status != StatusAvailable {
		t.Errorf("forces: got %s, want available", initial["forces"].Status)
	}
	if initial["forces"].UnlockedAt == nil || !initial["forces"].UnlockedAt.Equal(now) {
		t.Errorf("forces: UnlockedAt not stamped")
	}
	for _, id := range []string{"moments", "vectors", "equilibrium"} {
		if initial[id].Status != StatusLocked {
			t.Errorf("%s: got %s, want locked", id, initial[id].Status)
		}
		if initial[id].UserID != "u1" || initial[id].TreeID != "mech-statics" {
			t.Errorf("%s: keys not populated: %+v", id, initial[id])
		}
	}
}

func TestRecomputeUnlocks_UnlocksAfterCompletion(t *testing.T) {
	g := mustGraph(t)
	progress := progressWith(map[string]Status{
		"forces":      StatusCompleted,
		"moments":     StatusLocked,
		"vectors":     StatusLocked,
		"equilibrium": StatusLocked,
	})

	changed := RecomputeUnlocks(g, "u1", progress, now)
	if len(changed) != 2 {
		t.Fatalf("got %d changes, want 2: %v", len(changed), changed)
	}
	for _, id := range []string{"moments", "vectors"} {
		p, ok := changed[id]
		if !ok {
			t.Fatalf("%s should have unlocked", id)
		}
		if p.Status != StatusAvailable || p.UnlockedAt == nil {
			t.Errorf("%s: got %+v", id, p)
		}
	}

	// Input untouched.
	if progress["moments"].Status != StatusLocked {
		t.Error("RecomputeUnlocks modified its input")
	}
}

func TestRecomputeUnlocks_SinglePassIsEnough(t *testing.T) {
	g := mustGraph(t)
	// moments completed but vectors only available: equilibrium stays locked
	// even though vectors is about to be unlocked in the same pass.
	progress := progressWith(map[string]Status{
		"forces":  StatusCompleted,
		"moments": StatusCompleted,
	})

	changed := RecomputeUnlocks(g, "u1", progress, now)
	if _, ok := changed["equilibrium"]; ok {
		t.Error("equilibrium should not unlock before vectors is completed")
	}
	if _, ok := changed["vectors"]; !ok {
		t.Error("vectors should unlock")
	}

	again := RecomputeUnlocks(g, "u1", mergeProgress(progress, changed), now)
	if len(again) != 0 {
		t.Errorf("second pass should be a no-op, got %v", again)
	}
}

func TestRecomputeUnlocks_NeverRegresses(t *testing.T) {
	g := mustGraph(t)
	progress := progressWith(map[string]Status{
		"forces":      StatusAvailable,
		"moments":     StatusInProgress,
		"vectors":     StatusCompleted,
		"equilibrium": StatusLocked,
	})
	changed := RecomputeUnlocks(g, "u1", progress, now)
	if len(changed) != 0 {
		t.Errorf("expected no changes, got %v", changed)
	}
}

func TestIsTreeComplete(t *testing.T) {
	g := mustGraph(t)

	partial := progressWith(map[string]Status{
		"forces": StatusCompleted, "moments": StatusCompleted, "vectors": StatusCompleted,
	})
	if IsTreeComplete(g, partial) {
		t.Error("tree should not be complete with equilibrium pending")
	}
	if got := PercentComplete(g, partial); got != 75 {
		t.Errorf("PercentComplete = %d, want 75", got)
	}

	// The inactive node does not count towards completion.
	full := progressWith(map[string]Status{
		"forces": StatusCompleted, "moments": StatusCompleted,
		"vectors": StatusCompleted, "equilibrium": StatusCompleted,
	})
	if !IsTreeComplete(g, full) {
		t.Error("tree should be complete when every active node is completed")
	}
	if got := CompletedCount(g, full); got != 4 {
		t.Errorf("CompletedCount = %d, want 4", got)
	}
}

func TestIsTreeComplete_EmptyTree(t *testing.T) {
	g, err := NewGraph(Tree{ID: "empty"}, nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if IsTreeComplete(g, nil) {
		t.Error("empty tree should never be complete")
	}
}

func mergeProgress(base, changes map[string]Progress) map[string]Progress {
	out := make(map[string]Progress, len(base)+len(changes))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range changes {
		out[k] = v
	}
	return out
}
