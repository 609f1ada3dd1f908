// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
)

// DatasetRow is one input/expected-output pair.
type DatasetRow struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
}

// Dataset is a named collection of rows used to drive experiments.
type Dataset struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Rows []DatasetRow `json:"rows,omitempty"`
}

// CreateDataset creates a named dataset with the given rows.
func (c *Client) CreateDataset(ctx context.Context, projectID, name string, rows []DatasetRow) (*Dataset, error) {
	req := struct {
		Name string       `json:"name"`
		Rows []DatasetRow `json:"rows"`
	}{Name: name, Rows: rows}

	var ds Dataset
	path := fmt.Sprintf("/v1/projects/%s/datasets", projectID)
	if err := c.do(ctx, "POST", path, req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// GetDataset fetches a dataset by name, rows included.
func (c *Client) GetDataset(ctx context.Context, projectID, name string) (*Dataset, error) {
	var ds Dataset
	path := fmt.Sprintf("/v1/projects/%s/datasets/%s", projectID, name)
	if err := c.do(ctx, "GET", path, nil, &ds); err != nil {
		return nil, wrapNotFound(err, "dataset", name)
	}
	return &ds, nil
}
