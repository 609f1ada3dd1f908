// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/config"
	"github.com/elastic/metricat/internal/fetch"
)

// Fetch tuning flags shared by session and logstream commands.
var (
	maxWaitFlag      time.Duration
	pollIntervalFlag time.Duration
	pageSizeFlag     int
	retryBudgetFlag  int
	retryDelayFlag   time.Duration
	jsonFlag         bool
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Fetch a session's metrics, waiting for scorers to finish",
	Long: `Fetch the complete metrics report for one session: the session's own
metrics plus every trace and span under it.

Metric computation is asynchronous, so the command polls until every
metric reaches a terminal state or --max-wait runs out. Exhausting the
wait is not an error; the best-available snapshot is printed with
pending metrics marked as such.

Examples:
  metricat session sess-42 --project onboarding
  metricat session sess-42 --max-wait 5m --poll-interval 10s
  metricat session sess-42 --json > report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, args[0])
	},
}

func init() {
	registerFetchFlags(sessionCmd)
	rootCmd.AddCommand(sessionCmd)
}

// registerFetchFlags adds the polling/pagination flags shared by the
// metrics-fetching commands.
func registerFetchFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&maxWaitFlag, "max-wait", config.DefaultMaxWait, "Total wait budget per session, 0 polls once (env: METRICAT_FETCH_MAX_WAIT)")
	cmd.Flags().DurationVar(&pollIntervalFlag, "poll-interval", config.DefaultPollInterval, "Delay between polls (env: METRICAT_FETCH_POLL_INTERVAL)")
	cmd.Flags().IntVar(&pageSizeFlag, "page-size", config.DefaultPageSize, "Listing page size (env: METRICAT_FETCH_PAGE_SIZE)")
	cmd.Flags().IntVar(&retryBudgetFlag, "retry-budget", config.DefaultRetryBudget, "Retries per page on transient errors (env: METRICAT_FETCH_RETRY_BUDGET)")
	cmd.Flags().DurationVar(&retryDelayFlag, "retry-delay", config.DefaultRetryDelay, "Initial retry delay, doubles per attempt (env: METRICAT_FETCH_RETRY_DELAY)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the report as JSON")
}

func runSession(cmd *cobra.Command, sessionID string) error {
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

	fetcher := fetch.New(client, fetchOptions(cfg, pollProgress()))
	report, err := fetcher.SessionMetrics(ctx, proj.ID, sessionID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("session %q not found in project %q", sessionID, proj.Name)
		}
		return err
	}

	if jsonFlag {
		return printJSON(report)
	}
	renderSessionReport(report)
	return nil
}

// pollProgress reports poll status on stderr so stdout stays clean for
// report output.
func pollProgress() fetch.ProgressFunc {
	return func(e fetch.ProgressEvent) {
		if e.Done {
			return
		}
		fmt.Fprintf(os.Stderr, "poll %d: %d metrics pending\n", e.Poll, e.Pending)
	}
}
