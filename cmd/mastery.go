package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/ui"
)

var masteryCmd = &cobra.Command{
	Use:   "mastery <user>",
	Short: "Show a learner's mastery tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		root, err := e.coach.MasterySnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(root)
		}
		width, _ := cmd.Flags().GetInt("width")
		fmt.Print(ui.MasteryTree(root, width))
		return nil
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews <user>",
	Short: "Show a learner's stored review schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		entries, err := e.coach.Reviews(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(entries)
		}

		root, err := e.coach.MasterySnapshot(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(ui.Reviews(entries, nodeNames(root), time.Now()))
		return nil
	},
}

func nodeNames(root *mastery.Node) func(string) string {
	return func(id string) string {
		if n := root.Find(id); n != nil && n.Name != "" {
			return n.Name
		}
		return id
	}
}

func init() {
	masteryCmd.Flags().Bool("json", false, "Print the tree as JSON")
	masteryCmd.Flags().Int("width", ui.DefaultWidth, "Report width")
	reviewsCmd.Flags().Bool("json", false, "Print the schedule as JSON")
}
