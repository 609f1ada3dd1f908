// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved metricat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging flags, environment variables, and
defaults (precedence: flags > env > defaults). Secrets are redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := config.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("configuration not loaded")
		}

		fmt.Println(style(headingStyle, "API"))
		fmt.Printf("  url:        %s\n", cfg.API.URL)
		fmt.Printf("  key:        %s\n", redact(cfg.API.Key))
		fmt.Printf("  project:    %s\n", orUnset(cfg.API.Project))
		fmt.Printf("  logstream:  %s\n", orUnset(cfg.API.Logstream))
		fmt.Printf("  timeout:    %s\n", cfg.API.Timeout)

		fmt.Println(style(headingStyle, "LLM"))
		fmt.Printf("  url:        %s\n", cfg.LLM.URL)
		fmt.Printf("  key:        %s\n", redact(cfg.LLM.Key))
		fmt.Printf("  model:      %s\n", cfg.LLM.Model)

		fmt.Println(style(headingStyle, "Fetch"))
		fmt.Printf("  max-wait:      %s\n", cfg.Fetch.MaxWait)
		fmt.Printf("  poll-interval: %s\n", cfg.Fetch.PollInterval)
		fmt.Printf("  page-size:     %d\n", cfg.Fetch.PageSize)
		fmt.Printf("  retry-budget:  %d\n", cfg.Fetch.RetryBudget)
		fmt.Printf("  retry-delay:   %s\n", cfg.Fetch.RetryDelay)

		fmt.Println(style(headingStyle, "OTLP"))
		fmt.Printf("  endpoint:   %s\n", cfg.OTLP.Endpoint)
		fmt.Printf("  insecure:   %t\n", cfg.OTLP.Insecure)
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the platform API",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := apiClient(cmd)
		if err != nil {
			return err
		}
		if err := client.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("platform at %s is unreachable: %w", cfg.API.URL, err)
		}
		fmt.Printf("Platform at %s is up.\n", cfg.API.URL)
		return nil
	},
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pingCmd)
}
