// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"
	"testing"

	"github.com/elastic/metricat/internal/api"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{name: "nil", value: nil, expected: "-"},
		{name: "bool true", value: true, expected: "true"},
		{name: "bool false", value: false, expected: "false"},
		{name: "integer-valued float", value: float64(3), expected: "3"},
		{name: "fractional float", value: 0.256, expected: "0.256"},
		{name: "rounded fraction", value: 0.12345, expected: "0.123"},
		{name: "string", value: "low", expected: "low"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := formatValue(tc.value)
			if got != tc.expected {
				t.Errorf("formatValue(%v) = %q, want %q", tc.value, got, tc.expected)
			}
		})
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		result   api.MetricResult
		expected string
	}{
		{name: "pending hides value", result: api.MetricResult{Value: 0.5, Status: api.MetricPending}, expected: "pending"},
		{name: "unavailable", result: api.MetricResult{Status: api.MetricUnavailable}, expected: "unavailable"},
		{name: "computed bool", result: api.MetricResult{Value: false, Status: api.MetricComputed}, expected: "false"},
		{name: "bare value", result: api.MetricResult{Value: 0.25}, expected: "0.250"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := formatMetric(tc.result)
			if !strings.Contains(got, tc.expected) {
				t.Errorf("formatMetric(%+v) = %q, want it to contain %q", tc.result, got, tc.expected)
			}
		})
	}
}

func TestFormatMetric_Explanation(t *testing.T) {
	got := formatMetric(api.MetricResult{
		Value:       true,
		Status:      api.MetricComputed,
		Explanation: "the response recommends a specific legal remedy",
	})
	if !strings.Contains(got, "true") || !strings.Contains(got, "legal remedy") {
		t.Errorf("formatMetric with explanation = %q", got)
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "short passes through", input: "hello", expected: "hello"},
		{name: "newlines flattened", input: "line one\nline two", expected: "line one line two"},
		{name: "runs of spaces collapsed", input: "a   b", expected: "a b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := clip(tc.input); got != tc.expected {
				t.Errorf("clip(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}

	t.Run("long text truncated with ellipsis", func(t *testing.T) {
		long := strings.Repeat("word ", 40)
		got := clip(long)
		if len(got) > maxTextWidth+len("…") {
			t.Errorf("clip left %d chars, want at most %d", len(got), maxTextWidth)
		}
		if !strings.HasSuffix(got, "…") {
			t.Errorf("clip(%q...) = %q, want ellipsis suffix", long[:20], got)
		}
	})
}

func TestRedact(t *testing.T) {
	if got := redact(""); got != "(unset)" {
		t.Errorf("redact(\"\") = %q, want (unset)", got)
	}
	if got := redact("sk-secret"); strings.Contains(got, "secret") {
		t.Errorf("redact leaked the secret: %q", got)
	}
}

func TestStripURLScheme(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://localhost:4318", "localhost:4318"},
		{"https://collector.example.com:443", "collector.example.com:443"},
		{"localhost:4318", "localhost:4318"},
	}
	for _, tc := range tests {
		if got := stripURLScheme(tc.input); got != tc.expected {
			t.Errorf("stripURLScheme(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
