// Package config reads prepcoach settings from PREPCOACH_* environment
// variables over built-in defaults. Command-line flags override both.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/prepcoach/internal/batch"
	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/llm"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// DefaultBatchSize is the number of users fetched per page.
const DefaultBatchSize = 100

// Config holds every runtime setting.
type Config struct {
	DB        string // SQLite path or postgres:// DSN; empty uses store.DefaultDBPath
	LogLevel  slog.Level
	LogFormat string // text or json

	RulesFile      string
	SchedulePolicy string
	PerCategory    int
	SnapshotKeep   int

	Workers   int
	BatchSize int

	Addr        string
	JWTSecret   string
	CORSOrigins []string

	LLM llm.Config
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       slog.LevelInfo,
		LogFormat:      "text",
		SchedulePolicy: "table",
		PerCategory:    suggestion.DefaultConfig().PerCategory,
		SnapshotKeep:   coach.DefaultSnapshotKeep,
		Workers:        batch.DefaultWorkers,
		BatchSize:      DefaultBatchSize,
		Addr:           ":8080",
		CORSOrigins:    []string{"*"},
		LLM:            llm.DefaultConfig(),
	}
}

// FromEnv reads the environment over Default.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.DB = os.Getenv("PREPCOACH_DB")
	cfg.RulesFile = os.Getenv("PREPCOACH_RULES_FILE")
	cfg.JWTSecret = os.Getenv("PREPCOACH_JWT_SECRET")
	if v := os.Getenv("PREPCOACH_LOG_LEVEL"); v != "" {
		lvl, err := ParseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	if v := os.Getenv("PREPCOACH_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := os.Getenv("PREPCOACH_SCHEDULE_POLICY"); v != "" {
		cfg.SchedulePolicy = v
	}
	if v := os.Getenv("PREPCOACH_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PREPCOACH_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PREPCOACH_WORKERS", &cfg.Workers},
		{"PREPCOACH_BATCH_SIZE", &cfg.BatchSize},
		{"PREPCOACH_PER_CATEGORY", &cfg.PerCategory},
		{"PREPCOACH_SNAPSHOT_KEEP", &cfg.SnapshotKeep},
	}
	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}

	cfg.LLM = llm.ConfigFromEnv()
	return cfg, cfg.Validate()
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.PerCategory <= 0 {
		return fmt.Errorf("per-category cap must be positive, got %d", c.PerCategory)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := spacedrep.PolicyByName(c.SchedulePolicy); err != nil {
		return err
	}
	return c.LLM.Validate()
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Registry loads the rules file, or the built-in rules when none is set.
func (c Config) Registry() (*suggestion.Registry, error) {
	if c.RulesFile == "" {
		return suggestion.DefaultRegistry(), nil
	}
	return suggestion.LoadRegistryFile(c.RulesFile)
}

// CoachOptions assembles the engine options this config describes.
func (c Config) CoachOptions(logger *slog.Logger) (coach.Options, error) {
	reg, err := c.Registry()
	if err != nil {
		return coach.Options{}, err
	}
	policy, err := spacedrep.PolicyByName(c.SchedulePolicy)
	if err != nil {
		return coach.Options{}, err
	}
	return coach.Options{
		Registry:     reg,
		Engine:       suggestion.Config{PerCategory: c.PerCategory},
		Policy:       policy,
		Workers:      c.Workers,
		SnapshotKeep: c.SnapshotKeep,
		Logger:       logger,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
