package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var xpCmd = &cobra.Command{
	Use:   "xp",
	Short: "Show the learner's XP ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
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
		entries, err := e.store.XPEntries(ctx, user, limit)
		if err != nil {
			return fmt.Errorf("query xp ledger: %w", err)
		}
		total, err := e.store.TotalXP(ctx, user)
		if err != nil {
			return fmt.Errorf("sum xp: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No XP earned yet.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %6s  %-22s  %s\n", "Seq", "Timestamp", "XP", "Source", "Description")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, x := range entries {
			fmt.Fprintf(out, "%-5d  %-19s  %6d  %-22s  %s\n",
				x.Sequence,
				x.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				x.Amount,
				x.Source,
				x.Description,
			)
		}
		fmt.Fprintf(out, "\nTotal: %d XP\n", total)
		return nil
	},
}

func init() {
	xpCmd.Flags().Int("limit", 20, "Maximum number of entries to show (0 for all)")
}
