package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/engineermaster/internal/skilltree"
	"github.com/abhisek/engineermaster/internal/ui/components"
	"github.com/abhisek/engineermaster/internal/ui/theme"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Browse skill trees",
}

var treeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active skill trees with the learner's progress",
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

		ctx := cmd.Context()
		trees, err := e.store.Trees(ctx)
		if err != nil {
			return fmt.Errorf("list trees: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s  %-28s  %-12s  %s\n", "ID", "Name", "Discipline", "Progress")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, t := range trees {
			ov, err := e.svc.TreeOverview(ctx, user, t.ID)
			if err != nil {
				return err
			}
			bar := components.NewProgressBar("", ov.Percent, true, 24)
			fmt.Fprintf(out, "%-16s  %-28s  %-12s  %s\n", t.ID, truncate(t.Name, 28), t.Discipline, bar.View())
		}
		fmt.Fprintf(out, "\n%d trees\n", len(trees))
		return nil
	},
}

var treeShowCmd = &cobra.Command{
	Use:   "show <tree>",
	Short: "Show a tree's nodes and the learner's status on each",
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

		ov, err := e.svc.TreeOverview(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}

		tree := ov.Graph.Tree()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, theme.Title.Render(tree.Name))
		if tree.Description != "" {
			fmt.Fprintln(out, theme.Subtitle.Render(tree.Description))
		}
		fmt.Fprintln(out, components.NewProgressBar(tree.Discipline, ov.Percent, true, 50).View())
		fmt.Fprintln(out)

		completed := skilltree.CompletedSet(ov.Progress)
		for _, n := range ov.Graph.TopologicalOrder() {
			status := skilltree.StatusOf(ov.Progress, n.ID)
			if status == skilltree.StatusLocked && ov.Graph.IsUnlocked(n.ID, completed) {
				status = skilltree.StatusAvailable
			}
			line := fmt.Sprintf("%-16s  %-32s  %-14s  %4d XP", theme.Status(status), truncate(n.Name, 32), n.Type.DisplayName(), n.XPReward)
			if p, ok := ov.Progress[n.ID]; ok && status == skilltree.StatusInProgress {
				line += fmt.Sprintf("  (%d%%)", p.ProgressPercentage)
			}
			fmt.Fprintln(out, line)
			fmt.Fprintln(out, theme.Hint.Render("    "+n.ID+prereqSuffix(n)))
		}
		if ov.Complete {
			fmt.Fprintln(out)
			fmt.Fprintln(out, theme.Good.Render("Tree complete!"))
		}
		return nil
	},
}

var treeInitCmd = &cobra.Command{
	Use:   "init <tree>",
	Short: "Create the learner's progress records for a tree",
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

		progress, err := e.svc.InitializeTree(cmd.Context(), user, args[0])
		if err != nil {
			return err
		}
		available := 0
		for _, p := range progress {
			if p.Status == skilltree.StatusAvailable {
				available++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tree %s ready for %s: %d nodes, %d available\n", args[0], user, len(progress), available)
		return nil
	},
}

func prereqSuffix(n skilltree.Node) string {
	if len(n.Prerequisites) == 0 {
		return ""
	}
	return " ← " + strings.Join(n.Prerequisites, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	treeCmd.AddCommand(treeListCmd)
	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeInitCmd)
}
