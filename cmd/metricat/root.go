// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/config"
	"github.com/elastic/metricat/internal/fetch"
	"github.com/spf13/cobra"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	apiURLFlag     string
	apiKeyFlag     string
	projectFlag    string
	logstreamFlag  string
	apiTimeoutFlag time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "metricat",
	Short: "Session metrics fetcher for the LLM observability platform",
	Long: `MetriCat - Log LLM sessions to the observability platform and fetch their
asynchronously computed quality metrics.

Log a demo conversation with 'metricat demo', then pull its scored report
with 'metricat session <id>' once the scorers have run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	// Global flags (Viper precedence: flags > env > defaults)
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", config.DefaultAPIURL, "Platform API URL (env: METRICAT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Platform API key (env: METRICAT_API_KEY)")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project name or ID (env: METRICAT_API_PROJECT)")
	rootCmd.PersistentFlags().StringVarP(&logstreamFlag, "logstream", "s", "", "Logstream name or ID (env: METRICAT_API_LOGSTREAM)")
	rootCmd.PersistentFlags().DurationVar(&apiTimeoutFlag, "timeout", config.DefaultAPITimeout, "Per-request API timeout (env: METRICAT_API_TIMEOUT)")
}

// apiClient builds the platform client from loaded config.
func apiClient(cmd *cobra.Command) (*api.Client, config.Config, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, config.Config{}, fmt.Errorf("configuration not loaded")
	}
	client := api.NewClient(api.ClientOptions{
		BaseURL: cfg.API.URL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.API.Timeout,
	})
	return client, cfg, nil
}

// requireProject returns the configured project or a usage error.
func requireProject(cfg config.Config) (string, error) {
	if cfg.API.Project == "" {
		return "", fmt.Errorf("no project configured (use --project or METRICAT_API_PROJECT)")
	}
	return cfg.API.Project, nil
}

// fetchOptions maps loaded config onto fetcher options.
func fetchOptions(cfg config.Config, progress fetch.ProgressFunc) fetch.Options {
	return fetch.Options{
		MaxWait:      cfg.Fetch.MaxWait,
		PollInterval: cfg.Fetch.PollInterval,
		PageSize:     cfg.Fetch.PageSize,
		RetryBudget:  cfg.Fetch.RetryBudget,
		RetryDelay:   cfg.Fetch.RetryDelay,
		Progress:     progress,
	}
}
