// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package fetch

import "github.com/elastic/metricat/internal/api"

// SpanReport is the metrics snapshot of one span.
type SpanReport struct {
	ID      string        `json:"id"`
	Type    string        `json:"type,omitempty"`
	Metrics api.MetricMap `json:"metrics"`
}

// TraceReport is the metrics snapshot of one trace and its spans.
type TraceReport struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Input   string        `json:"input,omitempty"`
	Output  string        `json:"output,omitempty"`
	Metrics api.MetricMap `json:"metrics"`
	Spans   []SpanReport  `json:"spans"`
}

// SessionReport is the full metrics snapshot of a session: its own metrics
// plus every trace and span under it, in remote listing order.
// TimedOut marks a best-effort snapshot returned after the wait budget ran
// out with metrics still pending.
type SessionReport struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Status   api.SessionStatus `json:"status,omitempty"`
	Metrics  api.MetricMap     `json:"metrics"`
	Traces   []TraceReport     `json:"traces"`
	TimedOut bool              `json:"timed_out,omitempty"`
}

// LogstreamReport covers every session in a logstream, in listing order.
type LogstreamReport struct {
	Project     string          `json:"project"`
	ProjectID   string          `json:"project_id"`
	Logstream   string          `json:"logstream"`
	LogstreamID string          `json:"logstream_id"`
	Sessions    []SessionReport `json:"sessions"`
}

// PendingCount returns how many metrics across all levels are still pending.
func (r *SessionReport) PendingCount() int {
	n := countPending(r.Metrics)
	for _, tr := range r.Traces {
		n += countPending(tr.Metrics)
		for _, sp := range tr.Spans {
			n += countPending(sp.Metrics)
		}
	}
	return n
}

// MetricCount returns the total number of metric results across all levels.
func (r *SessionReport) MetricCount() int {
	n := len(r.Metrics)
	for _, tr := range r.Traces {
		n += len(tr.Metrics)
		for _, sp := range tr.Spans {
			n += len(sp.Metrics)
		}
	}
	return n
}

func countPending(m api.MetricMap) int {
	n := 0
	for _, res := range m {
		if res.Status == api.MetricPending {
			n++
		}
	}
	return n
}
