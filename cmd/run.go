package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/config"
	"github.com/abhisek/prepcoach/internal/format"
	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/store"
)

// env is what every command runs against.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	coach  *coach.Service
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		lvl, err := config.ParseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	cfg.DB, err = resolveDBPath(cmd, cfg.DB)
	if err != nil {
		return cfg, fmt.Errorf("resolve DB path: %w", err)
	}
	return cfg, nil
}

// openEnv opens the store and builds the coach service.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(os.Stderr)

	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts, err := cfg.CoachOptions(logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	var provider llm.Provider
	if cfg.LLM.Enabled() {
		provider, err = llm.New(cmd.Context(), cfg.LLM, logger)
		if err != nil {
			logger.Warn("LLM provider not configured, narration unavailable", "error", err)
			provider = nil
		}
	}
	opts.Narrator = format.NewNarrator(provider, logger)

	return &env{cfg: cfg, logger: logger, store: st, coach: coach.New(st, opts)}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// printJSON writes v indented to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
