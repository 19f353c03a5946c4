package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := userID(cmd)
		if err != nil {
			return err
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.svc.Statistics(cmd.Context(), user)
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintln(&b, theme.Title.Render("Statistics for "+user))
		fmt.Fprintf(&b, "Total XP              %d\n", s.TotalXP)
		fmt.Fprintf(&b, "Lessons completed     %d\n", s.LessonsCompleted)
		fmt.Fprintf(&b, "Nodes completed       %d\n", s.TotalSkillNodesCompleted)
		fmt.Fprintf(&b, "Trees unlocked        %d\n", s.SkillTreesUnlocked)
		fmt.Fprintf(&b, "Trees completed       %d\n", s.TreesCompleted)
		fmt.Fprintf(&b, "Mastered disciplines  %d\n", s.MasteredDisciplines)
		fmt.Fprintf(&b, "Founded disciplines   %d\n", s.FoundationDisciplines)

		if len(s.DisciplineProgress) > 0 {
			fmt.Fprintln(&b)
			fmt.Fprintln(&b, theme.Subtitle.Render("Nodes by discipline"))
			for _, d := range slices.Sorted(maps.Keys(s.DisciplineProgress)) {
				fmt.Fprintf(&b, "  %-20s %d\n", d, s.DisciplineProgress[d])
			}
		}

		fmt.Fprintln(&b)
		fmt.Fprintln(&b, theme.Subtitle.Render("Achievements"))
		for _, t := range achievement.AllTiers() {
			fmt.Fprintf(&b, "  %s  %d\n", theme.Tier(t), s.AchievementsByTier[t])
		}

		fmt.Fprint(cmd.OutOrStdout(), theme.Card.Render(strings.TrimRight(b.String(), "\n"))+"\n")
		return nil
	},
}
