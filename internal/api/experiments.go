// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
)

// Experiment identifies one experiment run.
type Experiment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DatasetID string `json:"dataset_id,omitempty"`
}

// CreateExperiment registers an experiment over a dataset. The named
// metrics are computed for every trace logged against the experiment.
func (c *Client) CreateExperiment(ctx context.Context, projectID, name, datasetID string, metrics []string) (*Experiment, error) {
	req := struct {
		Name      string   `json:"name"`
		DatasetID string   `json:"dataset_id"`
		Metrics   []string `json:"metrics,omitempty"`
	}{Name: name, DatasetID: datasetID, Metrics: metrics}

	var exp Experiment
	path := fmt.Sprintf("/v1/projects/%s/experiments", projectID)
	if err := c.do(ctx, "POST", path, req, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

// GetExperiment fetches an experiment by ID.
func (c *Client) GetExperiment(ctx context.Context, projectID, experimentID string) (*Experiment, error) {
	var exp Experiment
	path := fmt.Sprintf("/v1/projects/%s/experiments/%s", projectID, experimentID)
	if err := c.do(ctx, "GET", path, nil, &exp); err != nil {
		return nil, wrapNotFound(err, "experiment", experimentID)
	}
	return &exp, nil
}

// CreateExperimentTrace logs one dataset row's trace against an experiment.
func (c *Client) CreateExperimentTrace(ctx context.Context, projectID, experimentID string, req NewTraceRequest) (string, error) {
	var resp created
	path := fmt.Sprintf("/v1/projects/%s/experiments/%s/traces", projectID, experimentID)
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}
