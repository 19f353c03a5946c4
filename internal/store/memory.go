package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

// MemoryStore is an in-process ProgressStore. It is safe for concurrent use
// and is what the engine's tests run against.
type MemoryStore struct {
	mu sync.RWMutex

	trees        map[string]skilltree.Tree
	nodes        map[string]skilltree.Node
	achievements map[string]achievement.Achievement
	mastery      map[string]string

	progress map[progressKey]skilltree.Progress
	xp       []XPEntry
	awards   map[awardKey]achievement.UserAchievement
	lessons  map[lessonKey]LessonCompletion

	seq int64
	now func() time.Time
}

type progressKey struct{ userID, nodeID string }
type awardKey struct{ userID, achievementID string }
type lessonKey struct{ userID, lessonID string }

var _ ProgressStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trees:        make(map[string]skilltree.Tree),
		nodes:        make(map[string]skilltree.Node),
		achievements: make(map[string]achievement.Achievement),
		mastery:      make(map[string]string),
		progress:     make(map[progressKey]skilltree.Progress),
		awards:       make(map[awardKey]achievement.UserAchievement),
		lessons:      make(map[lessonKey]LessonCompletion),
		now:          time.Now,
	}
}

// SetClock replaces the time source used for stamps the store generates.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Trees(_ context.Context) ([]skilltree.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []skilltree.Tree
	for _, t := range m.trees {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Tree(_ context.Context, treeID string) (skilltree.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trees[treeID]
	if !ok {
		return skilltree.Tree{}, &NotFoundError{Kind: "tree", ID: treeID}
	}
	return t, nil
}

func (m *MemoryStore) Nodes(_ context.Context, treeID string) ([]skilltree.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []skilltree.Node
	for _, n := range m.nodes {
		if n.TreeID == treeID {
			out = append(out, cloneNode(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AllNodes(_ context.Context) ([]skilltree.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]skilltree.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, cloneNode(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TreeID != out[j].TreeID {
			return out[i].TreeID < out[j].TreeID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Node(_ context.Context, nodeID string) (skilltree.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[nodeID]
	if !ok {
		return skilltree.Node{}, &NotFoundError{Kind: "node", ID: nodeID}
	}
	return cloneNode(n), nil
}

func (m *MemoryStore) UserProgress(_ context.Context, userID, treeID string) (map[string]skilltree.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]skilltree.Progress)
	for k, p := range m.progress {
		if k.userID == userID && p.TreeID == treeID {
			out[k.nodeID] = p
		}
	}
	return out, nil
}

func (m *MemoryStore) AllUserProgress(_ context.Context, userID string) ([]skilltree.Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []skilltree.Progress
	for k, p := range m.progress {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TreeID != out[j].TreeID {
			return out[i].TreeID < out[j].TreeID
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}

func (m *MemoryStore) UpsertUserProgress(_ context.Context, userID, nodeID string, patch ProgressPatch) (skilltree.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = m.now()
	}
	key := progressKey{userID, nodeID}
	current, exists := m.progress[key]
	p := ApplyPatch(current, exists, userID, nodeID, patch)
	m.progress[key] = p
	return p, nil
}

func (m *MemoryStore) AppendXPEntry(_ context.Context, entry XPEntry) (XPEntry, bool, error) {
	if entry.UserID == "" {
		return XPEntry{}, false, fmt.Errorf("append xp entry: empty user id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ReferenceID != "" {
		if existing, ok := m.findXP(entry.UserID, entry.Source, entry.ReferenceID); ok {
			return existing, false, nil
		}
	}

	m.seq++
	entry.Sequence = m.seq
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now()
	}
	m.xp = append(m.xp, entry)
	return entry, true, nil
}

func (m *MemoryStore) findXP(userID string, source XPSource, referenceID string) (XPEntry, bool) {
	for _, e := range m.xp {
		if e.UserID == userID && e.Source == source && e.ReferenceID == referenceID {
			return e, true
		}
	}
	return XPEntry{}, false
}

func (m *MemoryStore) HasXPEntry(_ context.Context, userID string, source XPSource, referenceID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.xp {
		if e.UserID == userID && e.Source == source && (referenceID == "" || e.ReferenceID == referenceID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) XPEntries(_ context.Context, userID string, limit int) ([]XPEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []XPEntry
	for i := len(m.xp) - 1; i >= 0; i-- {
		if m.xp[i].UserID != userID {
			continue
		}
		out = append(out, m.xp[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) TotalXP(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, e := range m.xp {
		if e.UserID == userID {
			total += e.Amount
		}
	}
	return total, nil
}

func (m *MemoryStore) AchievementDefinitions(_ context.Context, tier *achievement.Tier) ([]achievement.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []achievement.Achievement
	for _, a := range m.achievements {
		if !a.Active || (tier != nil && a.Tier != *tier) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Achievement(_ context.Context, achievementID string) (achievement.Achievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.achievements[achievementID]
	if !ok {
		return achievement.Achievement{}, &NotFoundError{Kind: "achievement", ID: achievementID}
	}
	return a, nil
}

func (m *MemoryStore) UserAchievements(_ context.Context, userID string) ([]achievement.UserAchievement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []achievement.UserAchievement
	for k, ua := range m.awards {
		if k.userID == userID {
			out = append(out, ua)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].AchievementID < out[j].AchievementID
	})
	return out, nil
}

func (m *MemoryStore) AwardAchievement(_ context.Context, userID, achievementID string, progressData map[string]any) (achievement.UserAchievement, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := awardKey{userID, achievementID}
	if existing, ok := m.awards[key]; ok {
		return existing, false, nil
	}
	ua := achievement.UserAchievement{
		ID:            newID(),
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      m.now(),
		ProgressData:  maps.Clone(progressData),
	}
	m.awards[key] = ua
	return ua, true, nil
}

func (m *MemoryStore) RecordLessonCompletion(_ context.Context, userID, lessonID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := lessonKey{userID, lessonID}
	if _, ok := m.lessons[key]; ok {
		return false, nil
	}
	m.lessons[key] = LessonCompletion{UserID: userID, LessonID: lessonID, CompletedAt: m.now()}
	return true, nil
}

func (m *MemoryStore) LessonsCompleted(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.lessons {
		if k.userID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) SaveTree(_ context.Context, tree skilltree.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[tree.ID] = tree
	return nil
}

func (m *MemoryStore) SaveNode(_ context.Context, node skilltree.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node.ID] = cloneNode(node)
	return nil
}

func (m *MemoryStore) SaveAchievement(_ context.Context, a achievement.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.achievements[a.ID] = a
	return nil
}

func (m *MemoryStore) SetTreeMasteryAchievement(_ context.Context, treeID, achievementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mastery[treeID] = achievementID
	return nil
}

func (m *MemoryStore) TreeMasteryAchievement(_ context.Context, treeID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.mastery[treeID]
	return id, ok, nil
}

func cloneNode(n skilltree.Node) skilltree.Node {
	n.Prerequisites = slices.Clone(n.Prerequisites)
	return n
}
