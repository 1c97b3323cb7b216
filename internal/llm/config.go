package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures a provider. An empty Provider disables
// narration.
type Config struct {
	Provider string // anthropic, openai, gemini or mock
	Model    string
	APIKey   string
	BaseURL  string
	Retry    RetryConfig
	Timeout  time.Duration
}

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns narration disabled with default retry settings.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// vendorKeyEnv is each provider's conventional API key variable.
var vendorKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ConfigFromEnv reads PREPCOACH_LLM_* variables over DefaultConfig. When no
// PREPCOACH_LLM_API_KEY is set the provider's conventional variable is used.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.Provider = os.Getenv("PREPCOACH_LLM_PROVIDER")
	cfg.Model = os.Getenv("PREPCOACH_LLM_MODEL")
	cfg.BaseURL = os.Getenv("PREPCOACH_LLM_BASE_URL")
	cfg.APIKey = os.Getenv("PREPCOACH_LLM_API_KEY")
	if cfg.APIKey == "" {
		if name, ok := vendorKeyEnv[cfg.Provider]; ok {
			cfg.APIKey = os.Getenv(name)
		}
	}
	if v := os.Getenv("PREPCOACH_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// Validate checks the selected provider has what it needs.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "mock":
		return nil
	case "anthropic", "openai", "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("%s provider: PREPCOACH_LLM_API_KEY or %s is required", c.Provider, vendorKeyEnv[c.Provider])
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
}

// modelAliases maps short names to provider model ids.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-haiku":  "claude-haiku-4-5-20251001",
		"claude-sonnet": "claude-sonnet-4-20250514",
	},
	"openai": {
		"gpt-mini": "gpt-4o-mini",
		"gpt":      "gpt-4o",
	},
	"gemini": {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
}

var defaultModels = map[string]string{
	"anthropic": "claude-haiku",
	"openai":    "gpt-mini",
	"gemini":    "gemini-flash",
}

// ResolveModel maps an alias to a model id. Unknown names pass through and
// an empty name selects the provider default.
func ResolveModel(provider, name string) string {
	if name == "" {
		name = defaultModels[provider]
	}
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}
