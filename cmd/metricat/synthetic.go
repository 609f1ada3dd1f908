// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	telemetrygenlogs "github.com/open-telemetry/opentelemetry-collector-contrib/cmd/telemetrygen/pkg/logs"
	telemetrygenmetrics "github.com/open-telemetry/opentelemetry-collector-contrib/cmd/telemetrygen/pkg/metrics"
	telemetrygentraces "github.com/open-telemetry/opentelemetry-collector-contrib/cmd/telemetrygen/pkg/traces"
	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/config"
)

var (
	syntheticLogs    bool
	syntheticTraces  bool
	syntheticMetrics bool
	syntheticCount   int
	syntheticService string
)

var syntheticCmd = &cobra.Command{
	Use:   "synthetic",
	Short: "Send synthetic telemetry to the OTLP endpoint",
	Long: `Generate and send synthetic logs, traces, and metrics to the configured
OTLP endpoint.

This is useful for verifying the OTLP mirror pipeline end to end before
pointing real interaction logs at it.

Examples:
  # Send all three signal types (default)
  metricat synthetic

  # Send only logs
  metricat synthetic --logs

  # Send traces with custom count
  metricat synthetic --traces --count 10

  # Use a custom service name
  metricat synthetic --service my-chatbot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSynthetic(cmd)
	},
}

func init() {
	syntheticCmd.Flags().BoolVar(&syntheticLogs, "logs", false, "Send synthetic logs")
	syntheticCmd.Flags().BoolVar(&syntheticTraces, "traces", false, "Send synthetic traces")
	syntheticCmd.Flags().BoolVar(&syntheticMetrics, "metrics", false, "Send synthetic metrics")
	syntheticCmd.Flags().IntVar(&syntheticCount, "count", 5, "Number of items per signal type")
	syntheticCmd.Flags().StringVar(&syntheticService, "service", "metricat-test", "Service name for synthetic telemetry")

	rootCmd.AddCommand(syntheticCmd)
}

func runSynthetic(cmd *cobra.Command) error {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}

	// If no specific flags set, send all three signal types
	sendAll := !syntheticLogs && !syntheticTraces && !syntheticMetrics
	if sendAll {
		syntheticLogs = true
		syntheticTraces = true
		syntheticMetrics = true
	}

	endpoint := cfg.OTLP.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}

	fmt.Printf("Sending synthetic telemetry to %s...\n", stripURLScheme(endpoint))

	var failures []error

	if syntheticTraces {
		if err := sendTraces(cfg); err != nil {
			failures = append(failures, fmt.Errorf("traces: %w", err))
			fmt.Printf("  ✗ traces failed: %v\n", err)
		} else {
			fmt.Printf("  ✓ %d traces sent\n", syntheticCount)
		}
	}

	if syntheticLogs {
		if err := sendLogs(cfg); err != nil {
			failures = append(failures, fmt.Errorf("logs: %w", err))
			fmt.Printf("  ✗ logs failed: %v\n", err)
		} else {
			fmt.Printf("  ✓ %d logs sent\n", syntheticCount)
		}
	}

	if syntheticMetrics {
		if err := sendMetrics(cfg); err != nil {
			failures = append(failures, fmt.Errorf("metrics: %w", err))
			fmt.Printf("  ✗ metrics failed: %v\n", err)
		} else {
			fmt.Printf("  ✓ %d metrics sent\n", syntheticCount)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("some signals failed to send")
	}

	fmt.Println("Done!")
	return nil
}

func sendTraces(cfg config.Config) error {
	tgCfg := telemetrygentraces.NewConfig()
	configureTracesConfig(tgCfg, cfg)
	tgCfg.NumTraces = syntheticCount
	return telemetrygentraces.Start(tgCfg)
}

func sendLogs(cfg config.Config) error {
	tgCfg := telemetrygenlogs.NewConfig()
	configureLogsConfig(tgCfg, cfg)
	tgCfg.NumLogs = syntheticCount
	return telemetrygenlogs.Start(tgCfg)
}

func sendMetrics(cfg config.Config) error {
	tgCfg := telemetrygenmetrics.NewConfig()
	configureMetricsConfig(tgCfg, cfg)
	tgCfg.NumMetrics = syntheticCount
	return telemetrygenmetrics.Start(tgCfg)
}

// configureTracesConfig sets the common OTLP configuration for traces
func configureTracesConfig(tgCfg *telemetrygentraces.Config, cfg config.Config) {
	endpoint := cfg.OTLP.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}
	useTLS := strings.HasPrefix(endpoint, "https://")
	tgCfg.CustomEndpoint = stripURLScheme(endpoint)
	tgCfg.UseHTTP = true
	tgCfg.Insecure = !useTLS && cfg.OTLP.Insecure
	tgCfg.InsecureSkipVerify = true
	tgCfg.ServiceName = syntheticService
	tgCfg.SkipSettingGRPCLogger = true
	tgCfg.NumChildSpans = 3 // Create traces with multiple spans
	tgCfg.Rate = 0          // No rate limiting
}

// configureLogsConfig sets the common OTLP configuration for logs
func configureLogsConfig(tgCfg *telemetrygenlogs.Config, cfg config.Config) {
	endpoint := cfg.OTLP.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}
	useTLS := strings.HasPrefix(endpoint, "https://")
	tgCfg.CustomEndpoint = stripURLScheme(endpoint)
	tgCfg.UseHTTP = true
	tgCfg.Insecure = !useTLS && cfg.OTLP.Insecure
	tgCfg.InsecureSkipVerify = true
	tgCfg.ServiceName = syntheticService
	tgCfg.SkipSettingGRPCLogger = true
	tgCfg.Rate = 0 // No rate limiting
}

// configureMetricsConfig sets the common OTLP configuration for metrics
func configureMetricsConfig(tgCfg *telemetrygenmetrics.Config, cfg config.Config) {
	endpoint := cfg.OTLP.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}
	useTLS := strings.HasPrefix(endpoint, "https://")
	tgCfg.CustomEndpoint = stripURLScheme(endpoint)
	tgCfg.UseHTTP = true
	tgCfg.Insecure = !useTLS && cfg.OTLP.Insecure
	tgCfg.InsecureSkipVerify = true
	tgCfg.ServiceName = syntheticService
	tgCfg.SkipSettingGRPCLogger = true
	tgCfg.Rate = 0 // No rate limiting
}

// stripURLScheme removes http:// or https:// prefix from an endpoint.
// telemetrygen expects just host:port, not a full URL.
func stripURLScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return endpoint
}
