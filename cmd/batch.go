package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Evaluate every learner (the cron entry point)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		size, _ := cmd.Flags().GetInt("size")
		if size <= 0 {
			size = e.cfg.BatchSize
		}
		offset, _ := cmd.Flags().GetInt("offset")

		rep, runErr := e.coach.RunBatch(cmd.Context(), size, offset)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := printJSON(rep); err != nil {
				return err
			}
			return runErr
		}

		fmt.Printf("Processed %d of %d users in %d pages (%s)\n", rep.UsersProcessed, rep.Total, rep.Pages, rep.Duration.Round(time.Millisecond))
		fmt.Printf("Updated:   %d\n", rep.UsersUpdated)
		fmt.Printf("Failed:    %d\n", rep.UsersFailed)
		for _, f := range rep.Failures {
			fmt.Printf("  %s\n", f.Error())
		}
		return runErr
	},
}

func init() {
	batchCmd.Flags().Int("size", 0, "Users per page (default PREPCOACH_BATCH_SIZE or 100)")
	batchCmd.Flags().Int("offset", 0, "Number of users to skip")
	batchCmd.Flags().Bool("json", false, "Print the report as JSON")
}
