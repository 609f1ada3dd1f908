// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/config"
	"github.com/elastic/metricat/internal/ingest"
	"github.com/elastic/metricat/internal/otlp"
	"github.com/elastic/metricat/internal/watch"
)

var (
	importLines   int
	importOneshot bool
	importNoSend  bool
	importOTLP    string
	importMetrics []string
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import JSONL interaction logs as scored sessions",
	Long: `Watch JSONL interaction logs and import each exchange into the platform:
lines sharing a session key become one session, each exchange one trace
with an LLM span. Directories are watched for new .jsonl files.

Each line is a JSON object with at least an input field:
  {"session": "support-42", "input": "...", "output": "...", "model": "gpt-4o"}

Interactions are also mirrored to an OTLP endpoint unless --no-send is set.

Examples:
  metricat import ./logs/chatbot.jsonl
  metricat import ./logs/ --oneshot
  metricat import chat.jsonl --metric "Legal Advice Offered"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

func init() {
	importCmd.Flags().IntVarP(&importLines, "lines", "n", config.DefaultTailLines, "Number of existing lines to import from end of file")
	importCmd.Flags().BoolVar(&importOneshot, "oneshot", false, "Import all lines and exit (don't follow)")
	importCmd.Flags().BoolVar(&importNoSend, "no-send", false, "Skip the OTLP mirror")
	importCmd.Flags().StringVar(&importOTLP, "otlp", config.DefaultOTLPEndpoint, "OTLP HTTP endpoint for the mirror")
	importCmd.Flags().StringArrayVarP(&importMetrics, "metric", "m", []string{"Legal Advice Offered"}, "Metric to request per imported session (repeatable)")

	rootCmd.AddCommand(importCmd)
}

// importer ingests interactions, keeping one logger per session key.
type importer struct {
	exec        ingest.Executor
	projectID   string
	logstreamID string
	metrics     []string
	loggers     map[string]*ingest.Logger
	imported    int
}

func (im *importer) handle(ctx context.Context, in watch.Interaction) error {
	logger, ok := im.loggers[in.Session]
	if !ok {
		logger = ingest.NewLogger(im.exec, im.projectID, im.logstreamID)
		if _, err := logger.StartSession(ctx, in.Session); err != nil {
			return fmt.Errorf("session %q: %w", in.Session, err)
		}
		im.loggers[in.Session] = logger
	}

	if _, err := logger.StartTrace(ctx, "imported interaction", in.Input); err != nil {
		return err
	}
	if _, err := logger.LogLLMSpan(ctx, ingest.LLMSpan{
		Model:        in.Model,
		Input:        in.Input,
		Output:       in.Output,
		InputTokens:  in.InputTokens,
		OutputTokens: in.OutputTokens,
		StartedAt:    in.Timestamp,
	}); err != nil {
		return err
	}
	if err := logger.ConcludeTrace(ctx, in.Output); err != nil {
		return err
	}
	im.imported++
	return nil
}

// requestMetrics asks for scoring on every session touched by the import.
func (im *importer) requestMetrics(ctx context.Context) {
	for key, logger := range im.loggers {
		if err := logger.RequestMetrics(ctx, im.metrics); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: metrics request for session %q failed: %v\n", key, err)
		}
	}
}

func runImport(cmd *cobra.Command, paths []string) error {
	// Listen for SIGINT/SIGTERM and cancel the run context.
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

	watcher, err := watch.New(watch.Config{
		Paths:     paths,
		TailLines: importLines,
		Follow:    !importOneshot, // Don't follow in oneshot mode
		Oneshot:   importOneshot,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	go func() {
		<-ctx.Done()
		watcher.Stop()
	}()

	// Create OTLP client if mirroring is enabled
	var otlpClient *otlp.Client
	if !importNoSend {
		otlpClient, err = otlp.New(otlp.Config{
			Endpoint: importOTLP,
			Insecure: cfg.OTLP.Insecure,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create OTLP client: %v\n", err)
			fmt.Fprintf(os.Stderr, "Interactions will be imported but not mirrored.\n\n")
		}
	}

	im := &importer{
		exec:        client,
		projectID:   proj.ID,
		logstreamID: stream.ID,
		metrics:     importMetrics,
		loggers:     make(map[string]*ingest.Logger),
	}

	watcher.AddHandler(func(in watch.Interaction) {
		if err := im.handle(ctx, in); err != nil {
			fmt.Fprintf(os.Stderr, "Import error: %v\n", err)
			return
		}
		fmt.Printf("  %s ← %s\n", in.Session, clip(in.Input))
		if otlpClient != nil {
			otlpClient.SendInteraction(ctx, in)
		}
	})

	if importOneshot {
		fmt.Printf("Importing interactions from %d file(s) into %s/%s\n", len(watcher.Files()), proj.Name, stream.Name)
	} else {
		fmt.Printf("Watching %d file(s), importing into %s/%s\n", len(watcher.Files()), proj.Name, stream.Name)
		fmt.Println("Press Ctrl+C to stop")
	}
	fmt.Println()

	if importOneshot {
		n, err := watcher.ReadAll()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}
		fmt.Printf("\nImported %d interactions across %d sessions.\n", n, len(im.loggers))
	} else {
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		fmt.Printf("\nImported %d interactions across %d sessions.\n", im.imported, len(im.loggers))
	}

	// Request scoring for everything we touched; use a fresh context since
	// the run context is likely canceled by now.
	reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	im.requestMetrics(reqCtx)

	if otlpClient != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := otlpClient.Close(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close OTLP client: %v\n", err)
		}
	}

	return nil
}
