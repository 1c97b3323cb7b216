package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/coach"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Load curriculum, users, questions, attempts and exams",
	Long:  "Import a JSON dataset in one transaction. Use - to read stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		ds, err := coach.DecodeDataset(r)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.coach.Import(cmd.Context(), ds)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d subjects, %d users, %d questions, %d attempts, %d exams\n",
			st.Subjects, st.Users, st.Questions, st.Attempts, st.Exams)
		return nil
	},
}
