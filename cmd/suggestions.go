package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/format"
	"github.com/abhisek/prepcoach/internal/ui/theme"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions <user>",
	Short: "Render a learner's analysis and active suggestions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		a, err := e.coach.Analysis(ctx, args[0])
		if err != nil {
			return err
		}

		toneFlag, _ := cmd.Flags().GetString("tone")
		tone := format.ParseTone(toneFlag)
		if narrate, _ := cmd.Flags().GetBool("narrate"); narrate {
			n := e.coach.Narrate(ctx, a, tone)
			fmt.Println(theme.Title.Render(n.Headline))
			fmt.Println(n.Body)
			if !n.Generated {
				fmt.Println(theme.Hint.Render("(template text, no LLM output)"))
			}
			return nil
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(a)
		}
		fmt.Print(e.coach.FormatSuggestion(a, tone))
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <user> <suggestion-id>",
	Short: "Dismiss one of a learner's suggestions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.coach.DismissSuggestion(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Dismissed", args[1])
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire every learner's stale suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.coach.ExpireAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Expired %d suggestions\n", n)
		return nil
	},
}

func init() {
	suggestionsCmd.Flags().String("tone", "neutral", "encouraging, neutral or urgent")
	suggestionsCmd.Flags().Bool("narrate", false, "Rewrite the analysis with the configured LLM")
	suggestionsCmd.Flags().Bool("json", false, "Print the analysis as JSON")
}
