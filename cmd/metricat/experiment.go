// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/experiments"
	"github.com/elastic/metricat/internal/llm"
)

var (
	experimentDatasetFlag string
	experimentMetricsFlag []string
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run and inspect offline experiments over datasets",
}

var experimentRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run the model over a dataset and log one trace per row",
	Long: `Run an experiment: every row of the dataset is sent to the configured
model and the answer is logged as a trace against the experiment. The
named metrics are computed asynchronously for each trace; inspect them
later with 'metricat experiment show'.

Examples:
  metricat experiment run refusal-run-1 \
    --dataset legal_advice_refusal \
    --metric "Legal Advice Offered"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperiment(cmd, args[0])
	},
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <experiment-id>",
	Short: "Show an experiment's traces and their metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showExperiment(cmd, args[0])
	},
}

func init() {
	experimentRunCmd.Flags().StringVarP(&experimentDatasetFlag, "dataset", "d", "", "Dataset name to run over (required)")
	experimentRunCmd.Flags().StringArrayVarP(&experimentMetricsFlag, "metric", "m", nil, "Metric to compute per trace (repeatable)")
	_ = experimentRunCmd.MarkFlagRequired("dataset")
	experimentShowCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print traces as JSON")

	experimentCmd.AddCommand(experimentRunCmd)
	experimentCmd.AddCommand(experimentShowCmd)
	rootCmd.AddCommand(experimentCmd)
}

func runExperiment(cmd *cobra.Command, name string) error {
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
		return err
	}

	chat := llm.NewClient(llm.ClientOptions{
		BaseURL: cfg.LLM.URL,
		APIKey:  cfg.LLM.Key,
		Model:   cfg.LLM.Model,
	})

	fmt.Printf("Running experiment %q over dataset %q with model %s\n", name, experimentDatasetFlag, cfg.LLM.Model)

	result, err := experiments.Run(ctx, client, chat, proj.ID, experimentDatasetFlag, name, experimentMetricsFlag,
		func(row, total int, rr experiments.RowResult) {
			fmt.Fprintf(os.Stderr, "  row %d/%d → trace %s\n", row, total, rr.TraceID)
		})
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("dataset %q not found in project %q", experimentDatasetFlag, proj.Name)
		}
		return err
	}

	fmt.Printf("Logged %d traces against experiment %s\n", len(result.Rows), result.Experiment.ID)
	fmt.Printf("Inspect metrics with: metricat experiment show %s\n", result.Experiment.ID)
	return nil
}

func showExperiment(cmd *cobra.Command, experimentID string) error {
	client, cfg, err := apiClient(cmd)
	if err != nil {
		return err
	}
	project, err := requireProject(cfg)
	if err != nil {
		return err
	}
	proj, err := client.ResolveProject(cmd.Context(), project)
	if err != nil {
		return err
	}

	exp, err := client.GetExperiment(cmd.Context(), proj.ID, experimentID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("experiment %q not found in project %q", experimentID, proj.Name)
		}
		return err
	}

	traces, err := experiments.FetchTraces(cmd.Context(), client, proj.ID, exp.ID, cfg.Fetch.PageSize)
	if err != nil {
		return err
	}

	if jsonFlag {
		return printJSON(traces)
	}
	fmt.Println(style(headingStyle, fmt.Sprintf("Experiment %s (%s): %d traces", exp.Name, exp.ID, len(traces))))
	for _, tr := range traces {
		fmt.Printf("  %s %s\n", style(labelStyle, "trace"), tr.ID)
		if tr.Input != "" {
			fmt.Printf("    %s %s\n", style(mutedStyle, "input:"), clip(tr.Input))
		}
		if tr.Output != "" {
			fmt.Printf("    %s %s\n", style(mutedStyle, "output:"), clip(tr.Output))
		}
		printMetrics(tr.Metrics, "    ")
	}
	return nil
}
