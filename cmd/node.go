package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/progression"
	"github.com/abhisek/engineermaster/internal/ui/theme"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Start, update and complete skill nodes",
}

var nodeStartCmd = &cobra.Command{
	Use:   "start <node>",
	Short: "Mark an available node as in progress",
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

		p, err := e.svc.StartNode(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", args[0], theme.Status(p.Status))
		return nil
	},
}

var nodeProgressCmd = &cobra.Command{
	Use:   "progress <node> <percent>",
	Short: "Record partial progress on a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[1], err)
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

		p, err := e.svc.UpdateNodeProgress(cmd.Context(), user, args[0], pct)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d%%\n", args[0], theme.Status(p.Status), p.ProgressPercentage)
		return nil
	},
}

var nodeCompleteCmd = &cobra.Command{
	Use:   "complete <node>",
	Short: "Complete a node and collect its rewards",
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

		res, err := e.svc.CompleteNode(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		printCompletion(cmd.OutOrStdout(), res)
		return nil
	},
}

func printCompletion(out io.Writer, res *progression.CompletionResult) {
	if res.AlreadyCompleted {
		fmt.Fprintf(out, "%s was already completed\n", res.NodeID)
	} else {
		fmt.Fprintln(out, theme.Good.Render("Completed "+res.NodeID))
	}
	if res.XPAwarded > 0 {
		fmt.Fprintf(out, "  +%d XP\n", res.XPAwarded)
	}
	for _, id := range res.Unlocked {
		fmt.Fprintf(out, "  unlocked %s\n", id)
	}
	if res.TreeBonusXP > 0 {
		fmt.Fprintln(out, theme.Highlight.Render(fmt.Sprintf("  Tree %s complete! +%d XP", res.TreeID, res.TreeBonusXP)))
	}
	printAwards(out, res.Achievements)
	if res.Batch != nil {
		printAwards(out, res.Batch.Awarded)
		printFailures(out, res.Batch)
	}
}

func printAwards(out io.Writer, awards []progression.AwardResult) {
	for _, a := range awards {
		if !a.Awarded {
			continue
		}
		line := "  achievement " + a.AchievementID
		if a.XPAwarded > 0 {
			line += fmt.Sprintf(" (+%d XP)", a.XPAwarded)
		}
		fmt.Fprintln(out, theme.Highlight.Render(line))
	}
}

func printFailures(out io.Writer, b *progression.BatchResult) {
	for _, f := range b.Failures {
		fmt.Fprintln(out, theme.Bad.Render(fmt.Sprintf("  could not award %s: %v", f.AchievementID, f.Err)))
	}
}

func init() {
	nodeCmd.AddCommand(nodeStartCmd)
	nodeCmd.AddCommand(nodeProgressCmd)
	nodeCmd.AddCommand(nodeCompleteCmd)
}
