// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/fetch"
)

var logstreamCmd = &cobra.Command{
	Use:   "logstream [name]",
	Short: "Fetch metrics for every session in a logstream",
	Long: `Fetch metrics reports for all sessions in a logstream, in listing order.

The logstream can be given as an argument or through --logstream. Each
session is polled to convergence independently, so a logstream with slow
scorers takes up to --max-wait per session.

Examples:
  metricat logstream production --project onboarding
  metricat logstream --project onboarding --logstream production --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return runLogstream(cmd, name)
	},
}

func init() {
	registerFetchFlags(logstreamCmd)
	rootCmd.AddCommand(logstreamCmd)
}

func runLogstream(cmd *cobra.Command, name string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, cfg, err := apiClient(cmd)
	if err != nil {
		return err
	}
	project, err := requireProject(cfg)
	if err != nil {
		return err
	}
	if name == "" {
		name = cfg.API.Logstream
	}
	if name == "" {
		return fmt.Errorf("no logstream given (use an argument, --logstream, or METRICAT_API_LOGSTREAM)")
	}

	fetcher := fetch.New(client, fetchOptions(cfg, pollProgress()))
	report, err := fetcher.LogstreamMetrics(ctx, project, name)
	if err != nil {
		var nf *api.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("%s %q not found", nf.Resource, nf.Name)
		}
		return err
	}

	if jsonFlag {
		return printJSON(report)
	}
	renderLogstreamReport(report)
	return nil
}
