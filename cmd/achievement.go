package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/progression"
	"github.com/abhisek/engineermaster/internal/ui/theme"
)

var achievementCmd = &cobra.Command{
	Use:   "achievement",
	Short: "List, check and award achievements",
}

var achievementListCmd = &cobra.Command{
	Use:   "list",
	Short: "List achievements with the learner's progress towards each",
	RunE: func(cmd *cobra.Command, args []string) error {
		tierFlag, _ := cmd.Flags().GetString("tier")
		var tier *achievement.Tier
		if tierFlag != "" {
			t, err := achievement.ParseTier(tierFlag)
			if err != nil {
				return err
			}
			tier = &t
		}
		user, err := userID(cmd)
		if err != nil {
			return err
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		defs, err := e.store.AchievementDefinitions(ctx, tier)
		if err != nil {
			return fmt.Errorf("list achievements: %w", err)
		}
		stats, err := e.svc.Statistics(ctx, user)
		if err != nil {
			return err
		}
		earnedList, err := e.store.UserAchievements(ctx, user)
		if err != nil {
			return fmt.Errorf("list earned achievements: %w", err)
		}
		earned := achievement.EarnedSet(earnedList)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-20s  %-24s  %-14s  %6s  %s\n", "ID", "Name", "Tier", "XP", "Progress")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, a := range defs {
			progress := fmt.Sprintf("%d%%", achievement.Evaluate(a.Criteria, stats))
			if earned[a.ID] {
				progress = theme.Good.Render("earned")
			}
			fmt.Fprintf(out, "%-20s  %-24s  %-14s  %6d  %s\n",
				a.ID, truncate(a.Name, 24), theme.Tier(a.Tier), a.XPReward, progress)
		}
		fmt.Fprintf(out, "\n%d of %d earned\n", countEarned(defs, earned), len(defs))
		return nil
	},
}

var achievementCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Award every achievement whose criteria the learner now meets",
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

		res, err := e.svc.CheckAndAwardAll(cmd.Context(), user)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(res.Awarded) == 0 {
			fmt.Fprintln(out, "no new achievements")
		}
		printAwards(out, res.Awarded)
		printFailures(out, res)
		return res.Err()
	},
}

var achievementAwardCmd = &cobra.Command{
	Use:   "award <achievement>",
	Short: "Grant an achievement directly",
	Args:  cobra.ExactArgs(1),
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

		res, err := e.svc.AwardIfEligible(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		if !res.Awarded {
			fmt.Fprintf(cmd.OutOrStdout(), "%s not awarded (already earned or retired)\n", args[0])
			return nil
		}
		printAwards(cmd.OutOrStdout(), []progression.AwardResult{res})
		return nil
	},
}

func countEarned(defs []achievement.Achievement, earned map[string]bool) int {
	n := 0
	for _, a := range defs {
		if earned[a.ID] {
			n++
		}
	}
	return n
}

func init() {
	achievementListCmd.Flags().String("tier", "", "Filter by tier (bronze, silver, gold, platinum)")

	achievementCmd.AddCommand(achievementListCmd)
	achievementCmd.AddCommand(achievementCheckCmd)
	achievementCmd.AddCommand(achievementAwardCmd)
}
