package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job-trigger and learner API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = e.cfg.Addr
		}
		insecure, _ := cmd.Flags().GetBool("insecure")

		opts := api.Options{
			CORSOrigins:      e.cfg.CORSOrigins,
			DefaultBatchSize: e.cfg.BatchSize,
			Logger:           e.logger,
		}
		switch {
		case e.cfg.JWTSecret != "":
			opts.Verifier = api.NewVerifier(e.cfg.JWTSecret)
		case insecure:
			e.logger.Warn("serving without authentication")
		default:
			return errors.New("PREPCOACH_JWT_SECRET is required (or pass --insecure for local use)")
		}

		err = api.NewServer(e.coach, opts).ListenAndServe(cmd.Context(), addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default PREPCOACH_ADDR or :8080)")
	serveCmd.Flags().Bool("insecure", false, "Allow serving without token verification")
}
