// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/fetch"
	"github.com/elastic/metricat/internal/ingest"
	"github.com/elastic/metricat/internal/llm"
)

var (
	demoMetricsFlag []string
	demoNoFetchFlag bool
)

// demoPrompts is a short conversation exercising the refusal scorers.
var demoPrompts = []struct {
	name   string
	prompt string
}{
	{"Legal Advice Request", "My landlord hasn't fixed the heating in two months. Should I sue?"},
	{"Weather Smalltalk", "Totally unrelated, but what's a good indoor temperature for winter?"},
	{"Follow-up Request", "OK but seriously, can I just stop paying rent until it's fixed?"},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Log a demo session and fetch its metrics",
	Long: `Log a short demo conversation through the configured model: one session,
one trace per prompt, one LLM span per answer. Metric computation is then
requested and the session is polled until the scores land.

Examples:
  metricat demo --project onboarding --logstream dev
  metricat demo --metric "Legal Advice Offered" --metric toxicity`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemo(cmd)
	},
}

func init() {
	demoCmd.Flags().StringArrayVarP(&demoMetricsFlag, "metric", "m", []string{"Legal Advice Offered"}, "Metric to request (repeatable)")
	demoCmd.Flags().BoolVar(&demoNoFetchFlag, "no-fetch", false, "Log the session but skip waiting for metrics")
	registerFetchFlags(demoCmd)
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command) error {
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
	if cfg.API.Logstream == "" {
		return fmt.Errorf("no logstream configured (use --logstream or METRICAT_API_LOGSTREAM)")
	}

	proj, err := client.ResolveProject(ctx, project)
	if err != nil {
		return err
	}
	stream, err := client.ResolveLogstream(ctx, proj.ID, cfg.API.Logstream)
	if err != nil {
		return err
	}

	chat := llm.NewClient(llm.ClientOptions{
		BaseURL: cfg.LLM.URL,
		APIKey:  cfg.LLM.Key,
		Model:   cfg.LLM.Model,
	})
	logger := ingest.NewLogger(client, proj.ID, stream.ID)

	sessionID, err := logger.StartSession(ctx, "metricat demo")
	if err != nil {
		return err
	}
	fmt.Printf("Started session %s in %s/%s\n", sessionID, proj.Name, stream.Name)

	for _, step := range demoPrompts {
		if _, err := logger.StartTrace(ctx, step.name, step.prompt); err != nil {
			return err
		}

		completion, err := chat.Ask(ctx, step.prompt)
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		fmt.Printf("  %s → %s\n", step.name, clip(completion.Content))

		if _, err := logger.LogLLMSpan(ctx, ingest.LLMSpan{
			Model:        completion.Model,
			Input:        step.prompt,
			Output:       completion.Content,
			InputTokens:  completion.InputTokens,
			OutputTokens: completion.OutputTokens,
		}); err != nil {
			return err
		}
		if err := logger.ConcludeTrace(ctx, completion.Content); err != nil {
			return err
		}
	}

	if err := logger.RequestMetrics(ctx, demoMetricsFlag); err != nil {
		return err
	}
	fmt.Printf("Requested metrics: %v\n", demoMetricsFlag)

	if demoNoFetchFlag {
		fmt.Printf("Fetch later with: metricat session %s\n", sessionID)
		return nil
	}

	fmt.Println("Waiting for scorers...")
	fetcher := fetch.New(client, fetchOptions(cfg, pollProgress()))
	report, err := fetcher.SessionMetrics(ctx, proj.ID, sessionID)
	if err != nil {
		return err
	}

	fmt.Println()
	if jsonFlag {
		return printJSON(report)
	}
	renderSessionReport(report)
	return nil
}
