// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/datasets"
)

var datasetFileFlag string

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage datasets of input/expected-output rows",
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a dataset from a YAML or JSON file",
	Long: `Create a named dataset from a local file holding a flat list of
{input, output} pairs.

Example file (YAML):
  - input: "Should I sue my landlord?"
    output: "I cannot provide legal advice."
  - input: "What's the weather like?"
    output: "Sunny with a light breeze."

Example:
  metricat dataset create legal_advice_refusal --file rows.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		ds, err := datasets.CreateFromFile(cmd.Context(), client, proj.ID, args[0], datasetFileFlag)
		if err != nil {
			return err
		}
		fmt.Printf("Created dataset %q (%s) with %d rows\n", ds.Name, ds.ID, len(ds.Rows))
		return nil
	},
}

var datasetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a dataset and its rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		ds, err := datasets.Get(cmd.Context(), client, proj.ID, args[0])
		if err != nil {
			if api.IsNotFound(err) {
				return fmt.Errorf("dataset %q not found in project %q", args[0], proj.Name)
			}
			return err
		}

		if jsonFlag {
			return printJSON(ds)
		}
		fmt.Printf("%s\n", style(headingStyle, fmt.Sprintf("Dataset %s (%s), %d rows", ds.Name, ds.ID, len(ds.Rows))))
		for i, row := range ds.Rows {
			fmt.Printf("  %d. %s %s\n", i+1, style(mutedStyle, "input:"), clip(row.Input))
			if row.Output != "" {
				fmt.Printf("     %s %s\n", style(mutedStyle, "output:"), clip(row.Output))
			}
		}
		return nil
	},
}

func init() {
	datasetCreateCmd.Flags().StringVarP(&datasetFileFlag, "file", "f", "", "Path to a YAML or JSON rows file (required)")
	_ = datasetCreateCmd.MarkFlagRequired("file")
	datasetShowCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the dataset as JSON")

	datasetCmd.AddCommand(datasetCreateCmd)
	datasetCmd.AddCommand(datasetShowCmd)
	rootCmd.AddCommand(datasetCmd)
}
