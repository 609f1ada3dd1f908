// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package datasets creates and fetches named datasets of input/expected-
// output rows, loaded from local YAML or JSON files.
package datasets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elastic/metricat/internal/api"
)

// Executor defines the platform operations this package needs.
// *api.Client implements it.
type Executor interface {
	CreateDataset(ctx context.Context, projectID, name string, rows []api.DatasetRow) (*api.Dataset, error)
	GetDataset(ctx context.Context, projectID, name string) (*api.Dataset, error)
}

// fileRow mirrors api.DatasetRow for both YAML and JSON decoding.
type fileRow struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// LoadRows reads dataset rows from a YAML or JSON file. The format is a
// flat list of {input, output} pairs; .json files are decoded as JSON,
// everything else as YAML.
func LoadRows(path string) ([]api.DatasetRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	var fileRows []fileRow
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &fileRows); err != nil {
			return nil, fmt.Errorf("parse dataset JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fileRows); err != nil {
			return nil, fmt.Errorf("parse dataset YAML: %w", err)
		}
	}

	rows := make([]api.DatasetRow, 0, len(fileRows))
	for i, r := range fileRows {
		if strings.TrimSpace(r.Input) == "" {
			return nil, fmt.Errorf("dataset row %d has an empty input", i+1)
		}
		rows = append(rows, api.DatasetRow{Input: r.Input, Output: r.Output})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset file %s contains no rows", path)
	}
	return rows, nil
}

// CreateFromFile loads rows from path and creates the named dataset.
func CreateFromFile(ctx context.Context, exec Executor, projectID, name, path string) (*api.Dataset, error) {
	rows, err := LoadRows(path)
	if err != nil {
		return nil, err
	}
	ds, err := exec.CreateDataset(ctx, projectID, name, rows)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	return ds, nil
}

// Get fetches a dataset by name, rows included.
func Get(ctx context.Context, exec Executor, projectID, name string) (*api.Dataset, error) {
	return exec.GetDataset(ctx, projectID, name)
}
