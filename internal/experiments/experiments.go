// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package experiments runs a model over every row of a dataset, logging
// one trace per row against an experiment so the platform can score the
// outputs offline.
package experiments

import (
	"context"
	"fmt"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/llm"
)

// Executor defines the platform operations this package needs.
// *api.Client implements it.
type Executor interface {
	GetDataset(ctx context.Context, projectID, name string) (*api.Dataset, error)
	CreateExperiment(ctx context.Context, projectID, name, datasetID string, metrics []string) (*api.Experiment, error)
	CreateExperimentTrace(ctx context.Context, projectID, experimentID string, req api.NewTraceRequest) (string, error)
	ConcludeTrace(ctx context.Context, projectID, traceID, output string) error
	SearchTraces(ctx context.Context, projectID string, req api.SearchRequest) (*api.TracePage, error)
}

// ChatClient produces a completion for one prompt. *llm.Client implements it.
type ChatClient interface {
	Ask(ctx context.Context, prompt string) (*llm.Completion, error)
}

// RowResult records the outcome of one dataset row.
type RowResult struct {
	Input   string
	Output  string
	TraceID string
}

// RunResult is the outcome of a full experiment run.
type RunResult struct {
	Experiment *api.Experiment
	Rows       []RowResult
}

// ProgressFunc is called after each dataset row completes.
type ProgressFunc func(row int, total int, result RowResult)

// Run creates an experiment over the named dataset and processes its rows
// in order: each row's input is sent to the model and the answer is logged
// as a concluded trace against the experiment. Rows are processed
// sequentially so trace order matches dataset order.
func Run(ctx context.Context, exec Executor, chat ChatClient, projectID, datasetName, experimentName string, metrics []string, progress ProgressFunc) (*RunResult, error) {
	ds, err := exec.GetDataset(ctx, projectID, datasetName)
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("dataset %s has no rows", datasetName)
	}

	exp, err := exec.CreateExperiment(ctx, projectID, experimentName, ds.ID, metrics)
	if err != nil {
		return nil, fmt.Errorf("create experiment: %w", err)
	}

	result := &RunResult{Experiment: exp}
	for i, row := range ds.Rows {
		completion, err := chat.Ask(ctx, row.Input)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		traceID, err := exec.CreateExperimentTrace(ctx, projectID, exp.ID, api.NewTraceRequest{
			Name:  fmt.Sprintf("row-%d", i+1),
			Input: row.Input,
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: log trace: %w", i+1, err)
		}
		if err := exec.ConcludeTrace(ctx, projectID, traceID, completion.Content); err != nil {
			return nil, fmt.Errorf("row %d: conclude trace: %w", i+1, err)
		}

		rr := RowResult{Input: row.Input, Output: completion.Content, TraceID: traceID}
		result.Rows = append(result.Rows, rr)
		if progress != nil {
			progress(i+1, len(ds.Rows), rr)
		}
	}
	return result, nil
}

// FetchTraces lists every trace logged against an experiment, walking all
// pages in order.
func FetchTraces(ctx context.Context, exec Executor, projectID, experimentID string, pageSize int) ([]api.Trace, error) {
	var traces []api.Trace
	token := ""
	for {
		page, err := exec.SearchTraces(ctx, projectID, api.SearchRequest{
			ExperimentID: experimentID,
			PageToken:    token,
			PageSize:     pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list experiment traces: %w", err)
		}
		traces = append(traces, page.Records...)
		if page.NextPageToken == "" {
			return traces, nil
		}
		token = page.NextPageToken
	}
}
