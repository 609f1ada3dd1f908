// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for metricat.
// It supports deterministic precedence (flags > env > defaults) using Viper,
// and fail-fast validation to prevent silent misconfiguration.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Import ImportConfig `mapstructure:"import"`
	OTLP   OTLPConfig   `mapstructure:"otlp"`
}

// APIConfig holds platform API connection settings.
type APIConfig struct {
	URL       string        `mapstructure:"url"`       // Platform API base URL
	Key       string        `mapstructure:"key"`       // API key
	Project   string        `mapstructure:"project"`   // Default project name or ID
	Logstream string        `mapstructure:"logstream"` // Default logstream name or ID
	Timeout   time.Duration `mapstructure:"timeout"`   // Per-request timeout
}

// LLMConfig holds settings for the OpenAI-compatible chat endpoint used by
// the demo and experiment commands.
type LLMConfig struct {
	URL   string `mapstructure:"url"`   // Chat completions base URL
	Key   string `mapstructure:"key"`   // Bearer token
	Model string `mapstructure:"model"` // Default model
}

// FetchConfig bounds the metrics polling loop.
type FetchConfig struct {
	MaxWait      time.Duration `mapstructure:"max_wait"`      // Hard ceiling per session (0 = single poll)
	PollInterval time.Duration `mapstructure:"poll_interval"` // Sleep between polls
	PageSize     int           `mapstructure:"page_size"`     // Listing page size
	RetryBudget  int           `mapstructure:"retry_budget"`  // Transient retries per page fetch
	RetryDelay   time.Duration `mapstructure:"retry_delay"`   // Initial retry delay
}

// ImportConfig holds interaction-log import settings.
type ImportConfig struct {
	TailLines int  `mapstructure:"tail_lines"` // Lines to replay from end of file
	Oneshot   bool `mapstructure:"oneshot"`    // Import all and exit
	NoSend    bool `mapstructure:"no_send"`    // Parse and display only
}

// OTLPConfig holds the optional OTLP mirror settings.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP endpoint
	Insecure bool   `mapstructure:"insecure"` // Use insecure connection
}

// Default configuration values.
const (
	DefaultAPIURL       = "http://localhost:8088"
	DefaultAPITimeout   = 30 * time.Second
	DefaultLLMURL       = "https://api.openai.com"
	DefaultLLMModel     = "gpt-4o"
	DefaultMaxWait      = 2 * time.Minute
	DefaultPollInterval = 5 * time.Second
	DefaultPageSize     = 100
	DefaultRetryBudget  = 3
	DefaultRetryDelay   = time.Second
	DefaultOTLPEndpoint = "localhost:4318"
	DefaultTailLines    = 10
)

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config using Viper with precedence: flags > env > defaults.
// It binds flags from the command (and its parents) and fails fast on invalid values.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("METRICAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", DefaultAPIURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.project", "")
	v.SetDefault("api.logstream", "")
	v.SetDefault("api.timeout", DefaultAPITimeout)

	v.SetDefault("llm.url", DefaultLLMURL)
	v.SetDefault("llm.key", "")
	v.SetDefault("llm.model", DefaultLLMModel)

	v.SetDefault("fetch.max_wait", DefaultMaxWait)
	v.SetDefault("fetch.poll_interval", DefaultPollInterval)
	v.SetDefault("fetch.page_size", DefaultPageSize)
	v.SetDefault("fetch.retry_budget", DefaultRetryBudget)
	v.SetDefault("fetch.retry_delay", DefaultRetryDelay)

	v.SetDefault("import.tail_lines", DefaultTailLines)
	v.SetDefault("import.oneshot", false)
	v.SetDefault("import.no_send", false)

	v.SetDefault("otlp.endpoint", DefaultOTLPEndpoint)
	v.SetDefault("otlp.insecure", true)
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// bindFlagSet binds flags to Viper keys using explicit mappings to nested keys.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	flagToKey := map[string]string{
		"api-url":       "api.url",
		"api-key":       "api.key",
		"project":       "api.project",
		"logstream":     "api.logstream",
		"timeout":       "api.timeout",
		"llm-url":       "llm.url",
		"llm-key":       "llm.key",
		"model":         "llm.model",
		"max-wait":      "fetch.max_wait",
		"poll-interval": "fetch.poll_interval",
		"page-size":     "fetch.page_size",
		"retry-budget":  "fetch.retry_budget",
		"retry-delay":   "fetch.retry_delay",
		"lines":         "import.tail_lines",
		"oneshot":       "import.oneshot",
		"no-send":       "import.no_send",
		"otlp":          "otlp.endpoint",
	}

	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok {
			// Fallback: replace "-" with "." to allow nested binding if names align
			key = strings.ReplaceAll(f.Name, "-", ".")
		}
		_ = v.BindPFlag(key, f)
	})
	return nil
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return fmt.Errorf("api.url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Fetch.MaxWait < 0 {
		return fmt.Errorf("fetch.max_wait must be >= 0")
	}
	if c.Fetch.PollInterval < 0 {
		return fmt.Errorf("fetch.poll_interval must be >= 0")
	}
	if c.Fetch.PageSize <= 0 {
		return fmt.Errorf("fetch.page_size must be > 0")
	}
	if c.Fetch.RetryBudget < 0 {
		return fmt.Errorf("fetch.retry_budget must be >= 0")
	}
	if c.Fetch.RetryDelay <= 0 {
		return fmt.Errorf("fetch.retry_delay must be > 0")
	}
	if c.Import.TailLines < 0 {
		return fmt.Errorf("import.tail_lines must be >= 0")
	}
	return nil
}
