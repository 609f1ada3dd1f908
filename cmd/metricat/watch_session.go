// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/fetch"
	"github.com/elastic/metricat/internal/tui"
)

var watchSessionCmd = &cobra.Command{
	Use:   "watch-session <session-id>",
	Short: "Watch a session converge in an interactive view",
	Long: `Open a live view of a session's metrics converging: each poll updates
the pending count until every scorer lands or the wait budget runs out.

Press 'c' after convergence to copy the report as JSON, 'q' to quit.
Outside a terminal, fall back to 'metricat session'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchSession(cmd, args[0])
	},
}

func init() {
	registerFetchFlags(watchSessionCmd)
	rootCmd.AddCommand(watchSessionCmd)
}

func runWatchSession(cmd *cobra.Command, sessionID string) error {
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
	proj, err := client.ResolveProject(ctx, project)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("project %q not found", project)
		}
		return err
	}

	if !isTTY() {
		// No terminal: run the plain fetch path instead of the TUI.
		return runSession(cmd, sessionID)
	}

	report, err := tui.Run(ctx, sessionID, func(ctx context.Context, progress fetch.ProgressFunc) (*fetch.SessionReport, error) {
		fetcher := fetch.New(client, fetchOptions(cfg, progress))
		return fetcher.SessionMetrics(ctx, proj.ID, sessionID)
	})
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("session %q not found in project %q", sessionID, proj.Name)
		}
		return err
	}

	if jsonFlag && report != nil {
		return printJSON(report)
	}
	return nil
}
