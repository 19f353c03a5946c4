package achievement

import (
	"maps"

	"github.com/abhisek/engineermaster/internal/skilltree"
)

// Thresholds control when a discipline counts as mastered or founded.
type Thresholds struct {
	// MasteryNodes is the number of completed nodes in one discipline needed
	// for that discipline to count as mastered.
	MasteryNodes int
	// FoundationNodes is the number of completed foundation nodes needed for
	// a discipline to count towards FoundationDisciplines.
	FoundationNodes int
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MasteryNodes: 5, FoundationNodes: 1}
}

// Statistics is the aggregate view of a user's progress that criteria are
// evaluated against.
type Statistics struct {
	LessonsCompleted         int
	TotalSkillNodesCompleted int
	SkillNodesByType         map[string]int
	DisciplineProgress       map[string]int
	TotalXP                  int
	SkillTreesUnlocked       int
	TreesCompleted           int
	MasteredDisciplines      int
	FoundationDisciplines    int
	AchievementsByTier       map[Tier]int
}

// StatisticsInput is everything ComputeStatistics folds over.
type StatisticsInput struct {
	Trees            []skilltree.Tree
	Nodes            []skilltree.Node
	Progress         []skilltree.Progress
	LessonsCompleted int
	TotalXP          int
	Earned           []UserAchievement
	Definitions      []Achievement
}

// ComputeStatistics folds a user's raw records into Statistics. Progress on
// inactive nodes, or on nodes and trees missing from the input, is ignored.
func ComputeStatistics(in StatisticsInput, th Thresholds) Statistics {
	s := Statistics{
		LessonsCompleted:   in.LessonsCompleted,
		TotalXP:            in.TotalXP,
		SkillNodesByType:   make(map[string]int),
		DisciplineProgress: make(map[string]int),
		AchievementsByTier: make(map[Tier]int),
	}

	trees := make(map[string]skilltree.Tree, len(in.Trees))
	for _, t := range in.Trees {
		trees[t.ID] = t
	}
	nodes := make(map[string]skilltree.Node, len(in.Nodes))
	activePerTree := make(map[string]int)
	for _, n := range in.Nodes {
		if _, ok := trees[n.TreeID]; !ok || !n.Active {
			continue
		}
		nodes[n.ID] = n
		activePerTree[n.TreeID]++
	}

	unlockedTrees := make(map[string]bool)
	completedActive := make(map[string]int)
	foundations := make(map[string]int)
	for _, p := range in.Progress {
		n, ok := nodes[p.NodeID]
		if !ok {
			continue
		}
		if p.Status.Rank() > skilltree.StatusLocked.Rank() {
			unlockedTrees[n.TreeID] = true
		}
		if p.Status != skilltree.StatusCompleted {
			continue
		}

		discipline := trees[n.TreeID].Discipline
		s.TotalSkillNodesCompleted++
		s.SkillNodesByType[string(n.Type)]++
		s.DisciplineProgress[discipline]++
		if n.Type == skilltree.NodeFoundation {
			foundations[discipline]++
		}
		completedActive[n.TreeID]++
	}

	s.SkillTreesUnlocked = len(unlockedTrees)
	for treeID, total := range activePerTree {
		if completedActive[treeID] == total {
			s.TreesCompleted++
		}
	}
	for _, done := range s.DisciplineProgress {
		if done >= th.MasteryNodes {
			s.MasteredDisciplines++
		}
	}
	for _, done := range foundations {
		if done >= th.FoundationNodes {
			s.FoundationDisciplines++
		}
	}

	tiers := make(map[string]Tier, len(in.Definitions))
	for _, d := range in.Definitions {
		tiers[d.ID] = d.Tier
	}
	for _, ua := range in.Earned {
		if tier, ok := tiers[ua.AchievementID]; ok {
			s.AchievementsByTier[tier]++
		}
	}

	return s
}

// ToMap returns the snapshot stored alongside an award.
func (s Statistics) ToMap() map[string]any {
	byTier := make(map[string]int, len(s.AchievementsByTier))
	for t, n := range s.AchievementsByTier {
		byTier[string(t)] = n
	}
	return map[string]any{
		"lessons_completed":           s.LessonsCompleted,
		"total_skill_nodes_completed": s.TotalSkillNodesCompleted,
		"skill_nodes_by_type":         maps.Clone(s.SkillNodesByType),
		"discipline_progress":         maps.Clone(s.DisciplineProgress),
		"total_xp":                    s.TotalXP,
		"skill_trees_unlocked":        s.SkillTreesUnlocked,
		"trees_completed":             s.TreesCompleted,
		"mastered_disciplines":        s.MasteredDisciplines,
		"foundation_disciplines":      s.FoundationDisciplines,
		"achievements_by_tier":        byTier,
	}
}
