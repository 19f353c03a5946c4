package skilltree

import "time"

// CompletedSet extracts the IDs of completed nodes from a progress map.
func CompletedSet(progress map[string]Progress) map[string]bool {
	completed := make(map[string]bool, len(progress))
	for id, p := range progress {
		if p.Status == StatusCompleted {
			completed[id] = true
		}
	}
	return completed
}

// RecomputeUnlocks returns the progress entries that move from locked to
// available. A node unlocks when every prerequisite is completed; nodes with
// no prerequisites unlock immediately. Because prerequisites gate on
// completion, never on availability, one pass over the tree is enough and the
// order of evaluation does not matter.
//
// The input map is not modified. Entries missing from it are treated as
// locked and come back fully populated.
func RecomputeUnlocks(g *Graph, userID string, progress map[string]Progress, now time.Time) map[string]Progress {
	completed := CompletedSet(progress)
	changed := make(map[string]Progress)

	for _, n := range g.topoOrder {
		if StatusOf(progress, n.ID) != StatusLocked {
			continue
		}
		if !g.IsUnlocked(n.ID, completed) {
			continue
		}

		p, ok := progress[n.ID]
		if !ok {
			p = Progress{UserID: userID, NodeID: n.ID, TreeID: g.tree.ID}
		}
		unlockedAt := now
		p.Status = StatusAvailable
		p.UnlockedAt = &unlockedAt
		p.UpdatedAt = now
		changed[n.ID] = p
	}
	return changed
}

// InitialProgress returns the progress map for a learner who has not touched
// the tree yet: roots available, everything else locked.
func InitialProgress(g *Graph, userID string, now time.Time) map[string]Progress {
	out := make(map[string]Progress, len(g.nodes))
	for _, n := range g.topoOrder {
		out[n.ID] = Progress{
			UserID:    userID,
			NodeID:    n.ID,
			TreeID:    g.tree.ID,
			Status:    StatusLocked,
			UpdatedAt: now,
		}
	}
	for id, p := range RecomputeUnlocks(g, userID, out, now) {
		out[id] = p
	}
	return out
}

// CompletedCount returns how many active nodes of the tree are completed.
// Progress for nodes outside the graph is ignored.
func CompletedCount(g *Graph, progress map[string]Progress) int {
	count := 0
	for _, n := range g.nodes {
		if StatusOf(progress, n.ID) == StatusCompleted {
			count++
		}
	}
	return count
}

// IsTreeComplete reports whether every active node is completed. A tree with
// no active nodes is never complete.
func IsTreeComplete(g *Graph, progress map[string]Progress) bool {
	return g.ActiveCount() > 0 && CompletedCount(g, progress) == g.ActiveCount()
}

// PercentComplete returns the share of completed active nodes, 0-100.
func PercentComplete(g *Graph, progress map[string]Progress) int {
	if g.ActiveCount() == 0 {
		return 0
	}
	return CompletedCount(g, progress) * 100 / g.ActiveCount()
}
