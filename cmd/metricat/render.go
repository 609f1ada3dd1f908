// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/elastic/metricat/internal/api"
	"github.com/elastic/metricat/internal/fetch"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#61AFEF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCC00"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

const maxTextWidth = 60

// isTTY reports whether stdout is a terminal. Non-TTY output drops styling.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderSessionReport prints a full session report as an indented tree.
func renderSessionReport(r *fetch.SessionReport) {
	title := fmt.Sprintf("Session %s", r.ID)
	if r.Name != "" {
		title += fmt.Sprintf(" (%s)", r.Name)
	}
	fmt.Println(style(headingStyle, title))
	if r.TimedOut {
		fmt.Println(style(pendingStyle, fmt.Sprintf("  ⚠ timed out with %d metrics still pending", r.PendingCount())))
	}

	printMetrics(r.Metrics, "  ")
	for _, tr := range r.Traces {
		name := tr.Name
		if name == "" {
			name = tr.ID
		}
		fmt.Printf("  %s %s\n", style(labelStyle, "trace"), name)
		if tr.Input != "" {
			fmt.Printf("    %s %s\n", style(mutedStyle, "input:"), clip(tr.Input))
		}
		if tr.Output != "" {
			fmt.Printf("    %s %s\n", style(mutedStyle, "output:"), clip(tr.Output))
		}
		printMetrics(tr.Metrics, "    ")
		for _, sp := range tr.Spans {
			fmt.Printf("    %s %s (%s)\n", style(labelStyle, "span"), sp.ID, sp.Type)
			printMetrics(sp.Metrics, "      ")
		}
	}
}

// renderLogstreamReport prints every session in the logstream report.
func renderLogstreamReport(r *fetch.LogstreamReport) {
	fmt.Println(style(headingStyle, fmt.Sprintf("Logstream %s in project %s: %d sessions",
		r.Logstream, r.Project, len(r.Sessions))))
	fmt.Println()
	for i := range r.Sessions {
		renderSessionReport(&r.Sessions[i])
		fmt.Println()
	}
}

// printMetrics prints a metric map with stable ordering.
func printMetrics(m api.MetricMap, indent string) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := m[name]
		fmt.Printf("%s%s %s\n", indent, style(mutedStyle, name+":"), formatMetric(res))
	}
}

// formatMetric renders one metric result with its status.
func formatMetric(res api.MetricResult) string {
	switch res.Status {
	case api.MetricPending:
		return style(pendingStyle, "pending")
	case api.MetricUnavailable:
		return style(failStyle, "unavailable")
	}

	value := formatValue(res.Value)
	if res.Explanation != "" {
		return fmt.Sprintf("%s %s", style(okStyle, value), style(mutedStyle, "("+clip(res.Explanation)+")"))
	}
	return style(okStyle, value)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case bool:
		return fmt.Sprintf("%t", val)
	case float64:
		// JSON numbers decode as float64; print integers without decimals.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.3f", val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// clip flattens and truncates long free-form text for single-line display.
func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return ansi.Truncate(s, maxTextWidth, "…")
}

// style applies a lipgloss style only when writing to a terminal.
func style(st lipgloss.Style, s string) string {
	if !isTTY() {
		return s
	}
	return st.Render(s)
}
