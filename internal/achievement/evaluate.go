package achievement

import "math"

// Evaluate returns how far s has progressed towards c, from 0 to 100.
// A criterion with a zero or negative requirement is met immediately; an
// empty Combined, an Unknown and a nil criterion are never met.
func Evaluate(c Criterion, s Statistics) int {
	switch c := c.(type) {
	case LessonCompletion:
		return ratio(s.LessonsCompleted, c.Count)
	case SkillMastery:
		return ratio(s.DisciplineProgress[c.Discipline], c.NodesRequired)
	case TierAchievement:
		return ratio(s.AchievementsByTier[c.Tier], c.Count)
	case TreeCompletion:
		return ratio(s.TreesCompleted, c.TreesRequired)
	case XPEarned:
		return ratio(s.TotalXP, c.Amount)
	case SkillTreeMastery:
		return ratio(s.MasteredDisciplines, c.Disciplines)
	case Combined:
		if len(c.Requirements) == 0 {
			return 0
		}
		lowest := 100
		for _, r := range c.Requirements {
			lowest = min(lowest, Evaluate(r, s))
		}
		return lowest
	default:
		return 0
	}
}

// Satisfied reports whether c is fully met by s.
func Satisfied(c Criterion, s Statistics) bool {
	return Evaluate(c, s) == 100
}

func ratio(have, need int) int {
	if need <= 0 {
		return 100
	}
	pct := int(math.Round(100 * float64(have) / float64(need)))
	return max(0, min(100, pct))
}
