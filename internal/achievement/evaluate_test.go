package achievement

import "testing"

func TestEvaluate(t *testing.T) {
	stats := Statistics{
		LessonsCompleted:    3,
		DisciplineProgress:  map[string]int{"mechanical": 4},
		TotalXP:             250,
		TreesCompleted:      1,
		MasteredDisciplines: 2,
		AchievementsByTier:  map[Tier]int{TierBronze: 2},
	}

	tests := []struct {
		name string
		c    Criterion
		want int
	}{
		{"lessons partial", LessonCompletion{Count: 5}, 60},
		{"lessons exact", LessonCompletion{Count: 3}, 100},
		{"lessons exceeded clamps", LessonCompletion{Count: 1}, 100},
		{"lessons rounds", LessonCompletion{Count: 9}, 33},
		{"lessons rounds up", LessonCompletion{Count: 4}, 75},
		{"zero requirement", LessonCompletion{Count: 0}, 100},
		{"negative requirement", XPEarned{Amount: -10}, 100},
		{"skill mastery", SkillMastery{Discipline: "mechanical", NodesRequired: 8}, 50},
		{"skill mastery unknown discipline", SkillMastery{Discipline: "civil", NodesRequired: 3}, 0},
		{"tier count", TierAchievement{Tier: TierBronze, Count: 3}, 67},
		{"tier count missing tier", TierAchievement{Tier: TierGold, Count: 1}, 0},
		{"tree completion", TreeCompletion{TreesRequired: 2}, 50},
		{"xp", XPEarned{Amount: 1000}, 25},
		{"tree mastery", SkillTreeMastery{Disciplines: 2}, 100},
		{"combined takes minimum", Combined{Requirements: []Criterion{
			LessonCompletion{Count: 3},
			XPEarned{Amount: 500},
		}}, 50},
		{"combined nested", Combined{Requirements: []Criterion{
			Combined{Requirements: []Criterion{TreeCompletion{TreesRequired: 1}}},
			SkillTreeMastery{Disciplines: 1},
		}}, 100},
		{"combined empty", Combined{}, 0},
		{"combined with unknown", Combined{Requirements: []Criterion{
			LessonCompletion{Count: 1},
			Unknown{Type: "streak_days"},
		}}, 0},
		{"unknown", Unknown{Type: "streak_days"}, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.c, stats); got != tt.want {
				t.Errorf("Evaluate(%+v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestEvaluate_ZeroStatistics(t *testing.T) {
	var stats Statistics
	for _, c := range []Criterion{
		LessonCompletion{Count: 1},
		SkillMastery{Discipline: "electrical", NodesRequired: 1},
		TierAchievement{Tier: TierSilver, Count: 1},
		TreeCompletion{TreesRequired: 1},
		XPEarned{Amount: 1},
		SkillTreeMastery{Disciplines: 1},
	} {
		if got := Evaluate(c, stats); got != 0 {
			t.Errorf("%s: got %d, want 0", c.Kind(), got)
		}
	}
}

func TestEvaluate_MonotonicInStatistics(t *testing.T) {
	c := Combined{Requirements: []Criterion{
		LessonCompletion{Count: 10},
		XPEarned{Amount: 700},
	}}

	prev := -1
	for i := 0; i <= 20; i++ {
		s := Statistics{LessonsCompleted: i, TotalXP: i * 50}
		got := Evaluate(c, s)
		if got < 0 || got > 100 {
			t.Fatalf("step %d: %d out of range", i, got)
		}
		if got < prev {
			t.Fatalf("step %d: progress went backwards from %d to %d", i, prev, got)
		}
		prev = got
	}
	if prev != 100 {
		t.Errorf("final progress = %d, want 100", prev)
	}
}

func TestSatisfied(t *testing.T) {
	s := Statistics{TotalXP: 99}
	if Satisfied(XPEarned{Amount: 100}, s) {
		t.Error("99/100 XP should not be satisfied")
	}
	s.TotalXP = 100
	if !Satisfied(XPEarned{Amount: 100}, s) {
		t.Error("100/100 XP should be satisfied")
	}
}

func TestDependsOnAchievements(t *testing.T) {
	if DependsOnAchievements(XPEarned{Amount: 5}) {
		t.Error("xp criterion does not depend on achievements")
	}
	if !DependsOnAchievements(TierAchievement{Tier: TierGold, Count: 1}) {
		t.Error("tier criterion depends on achievements")
	}
	nested := Combined{Requirements: []Criterion{
		LessonCompletion{Count: 1},
		Combined{Requirements: []Criterion{TierAchievement{Tier: TierBronze, Count: 2}}},
	}}
	if !DependsOnAchievements(nested) {
		t.Error("nested tier criterion should be found")
	}
}
