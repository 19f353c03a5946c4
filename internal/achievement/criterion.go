package achievement

// Kind tags a criterion variant. The string form is the "type" field of the
// stored JSON.
type Kind string

const (
	KindLessonCompletion Kind = "lesson_completion"
	KindSkillMastery     Kind = "skill_mastery"
	KindTierAchievement  Kind = "tier_achievement"
	KindTreeCompletion   Kind = "tree_completion"
	KindXPEarned         Kind = "xp_earned"
	KindSkillTreeMastery Kind = "skill_tree_mastery"
	KindCombined         Kind = "combined"
)

// AllKinds returns every known criterion kind.
func AllKinds() []Kind {
	return []Kind{
		KindLessonCompletion,
		KindSkillMastery,
		KindTierAchievement,
		KindTreeCompletion,
		KindXPEarned,
		KindSkillTreeMastery,
		KindCombined,
	}
}

// Criterion is the closed set of unlock predicates. Only the types in this
// file implement it.
type Criterion interface {
	Kind() Kind
	isCriterion()
}

// LessonCompletion requires Count completed lessons.
type LessonCompletion struct {
	Count int
}

// SkillMastery requires NodesRequired completed nodes in one discipline.
type SkillMastery struct {
	Discipline    string
	NodesRequired int
}

// TierAchievement requires Count achievements already earned at Tier.
type TierAchievement struct {
	Tier  Tier
	Count int
}

// TreeCompletion requires TreesRequired fully completed trees.
type TreeCompletion struct {
	TreesRequired int
}

// XPEarned requires a total XP of at least Amount.
type XPEarned struct {
	Amount int
}

// SkillTreeMastery requires Disciplines mastered disciplines.
type SkillTreeMastery struct {
	Disciplines int
}

// Combined requires every sub-requirement to be met.
type Combined struct {
	Requirements []Criterion
}

// Unknown holds a stored criterion whose type tag this build does not know.
// It always evaluates to 0 so a bad definition cannot block anything else.
type Unknown struct {
	Type string
}

func (LessonCompletion) Kind() Kind { return KindLessonCompletion }
func (SkillMastery) Kind() Kind     { return KindSkillMastery }
func (TierAchievement) Kind() Kind  { return KindTierAchievement }
func (TreeCompletion) Kind() Kind   { return KindTreeCompletion }
func (XPEarned) Kind() Kind         { return KindXPEarned }
func (SkillTreeMastery) Kind() Kind { return KindSkillTreeMastery }
func (Combined) Kind() Kind         { return KindCombined }
func (u Unknown) Kind() Kind        { return Kind(u.Type) }

func (LessonCompletion) isCriterion() {}
func (SkillMastery) isCriterion()     {}
func (TierAchievement) isCriterion()  {}
func (TreeCompletion) isCriterion()   {}
func (XPEarned) isCriterion()         {}
func (SkillTreeMastery) isCriterion() {}
func (Combined) isCriterion()         {}
func (Unknown) isCriterion()          {}

// DependsOnAchievements reports whether evaluating c reads other
// achievements' earned state.
func DependsOnAchievements(c Criterion) bool {
	switch c := c.(type) {
	case TierAchievement:
		return true
	case Combined:
		for _, r := range c.Requirements {
			if DependsOnAchievements(r) {
				return true
			}
		}
	}
	return false
}
