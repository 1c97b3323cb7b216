package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "prepcoach",
	Short: "Adaptive mastery and review-scheduling engine",
	Long: "prepcoach turns practice-attempt history into mastery scores, schedules " +
		"spaced reviews against exam dates and keeps learners' coaching suggestions current.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, cancelled on shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite path or postgres:// DSN (overrides PREPCOACH_DB)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides PREPCOACH_LOG_LEVEL)")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(suggestionsCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database using --db flag (highest priority),
// then PREPCOACH_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, fromEnv string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if fromEnv != "" {
		return fromEnv, store.EnsureDir(fromEnv)
	}
	return store.DefaultDBPath()
}
