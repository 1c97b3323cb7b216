package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/suggestion"
	"github.com/abhisek/prepcoach/internal/ui"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <user>",
	Short: "Run the pipeline for one learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		triggers, _ := cmd.Flags().GetString("triggers")
		active, err := e.coach.EvaluateUser(cmd.Context(), args[0], suggestion.ParseTriggers(triggers))
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(active)
		}
		fmt.Println(ui.Suggestions(active))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("triggers", "", "Comma-separated trigger types (default DAILY_ANALYSIS)")
	evaluateCmd.Flags().Bool("json", false, "Print suggestions as JSON")
}
