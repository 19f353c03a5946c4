package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Record lesson completions",
}

var lessonCompleteCmd = &cobra.Command{
	Use:   "complete <lesson>",
	Short: "Record a completed lesson and its XP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		xp, _ := cmd.Flags().GetInt("xp")
		user, err := userID(cmd)
		if err != nil {
			return err
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.svc.CompleteLesson(cmd.Context(), user, args[0], xp)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.FirstCompletion {
			fmt.Fprintf(out, "lesson %s completed\n", res.LessonID)
		} else {
			fmt.Fprintf(out, "lesson %s was already completed\n", res.LessonID)
		}
		if res.XPAwarded > 0 {
			fmt.Fprintf(out, "  +%d XP\n", res.XPAwarded)
		}
		if res.Batch != nil {
			printAwards(out, res.Batch.Awarded)
			printFailures(out, res.Batch)
		}
		return nil
	},
}

func init() {
	lessonCompleteCmd.Flags().Int("xp", 10, "XP granted for the lesson")

	lessonCmd.AddCommand(lessonCompleteCmd)
}
