package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/spacedrep"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PREPCOACH_DB", "PREPCOACH_RULES_FILE", "PREPCOACH_JWT_SECRET", "PREPCOACH_LOG_LEVEL",
		"PREPCOACH_LOG_FORMAT", "PREPCOACH_SCHEDULE_POLICY", "PREPCOACH_ADDR", "PREPCOACH_CORS_ORIGINS",
		"PREPCOACH_WORKERS", "PREPCOACH_BATCH_SIZE", "PREPCOACH_PER_CATEGORY", "PREPCOACH_SNAPSHOT_KEEP",
		"PREPCOACH_LLM_PROVIDER", "PREPCOACH_LLM_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, 1, cfg.PerCategory)
	assert.Equal(t, "table", cfg.SchedulePolicy)
	assert.False(t, cfg.LLM.Enabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PREPCOACH_LOG_LEVEL", "debug")
	t.Setenv("PREPCOACH_WORKERS", "8")
	t.Setenv("PREPCOACH_BATCH_SIZE", "25")
	t.Setenv("PREPCOACH_SCHEDULE_POLICY", "exponential")
	t.Setenv("PREPCOACH_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PREPCOACH_DB", "postgres://localhost/prep")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, "exponential", cfg.SchedulePolicy)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "postgres://localhost/prep", cfg.DB)

	opts, err := cfg.CoachOptions(nil)
	require.NoError(t, err)
	assert.IsType(t, spacedrep.ExponentialLadder{}, opts.Policy)
	assert.Equal(t, 8, opts.Workers)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"non-numeric workers", "PREPCOACH_WORKERS", "many"},
		{"zero batch", "PREPCOACH_BATCH_SIZE", "0"},
		{"bad level", "PREPCOACH_LOG_LEVEL", "loud"},
		{"bad policy", "PREPCOACH_SCHEDULE_POLICY", "fibonacci"},
		{"bad format", "PREPCOACH_LOG_FORMAT", "xml"},
		{"unknown provider", "PREPCOACH_LLM_PROVIDER", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.Logger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	cfg.LogLevel = slog.LevelWarn
	cfg.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())
}

func TestRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - name: only-weak
    kind: weak_area
    category: WEAK_AREA
    priority: 10
    triggers: [DAILY_ANALYSIS]
`), 0o644))

	cfg := Default()
	cfg.RulesFile = path
	reg, err := cfg.Registry()
	require.NoError(t, err)
	require.Len(t, reg.Rules(), 1)
	assert.Equal(t, "only-weak", reg.Rules()[0].Name())

	cfg.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Registry()
	assert.Error(t, err)
}
