// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

// MetricStatus describes the computation state of a single metric result.
type MetricStatus string

const (
	// MetricComputed means the platform finished scoring this metric.
	MetricComputed MetricStatus = "computed"
	// MetricPending means the scorer has not produced a value yet.
	MetricPending MetricStatus = "pending"
	// MetricUnavailable means the scorer gave up (missing input, model error).
	MetricUnavailable MetricStatus = "unavailable"
)

// MetricResult is one scored metric on a session, trace, or span.
// Value is a bool, float64, or string depending on the scorer.
// Status may be empty: some scorers report bare values without a flag.
type MetricResult struct {
	Value       any          `json:"value,omitempty"`
	Status      MetricStatus `json:"status,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// MetricMap maps metric name to its result.
type MetricMap map[string]MetricResult

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session is one top-level logged interaction.
type Session struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Status  SessionStatus `json:"status,omitempty"`
	Metrics MetricMap     `json:"metrics,omitempty"`
}

// Trace is a unit of work inside a session.
type Trace struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name,omitempty"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Metrics   MetricMap `json:"metrics,omitempty"`
}

// Span is the finest-grained unit, belonging to a trace.
type Span struct {
	ID      string    `json:"id"`
	TraceID string    `json:"trace_id"`
	Type    string    `json:"type,omitempty"` // llm, retriever, tool
	Model   string    `json:"model,omitempty"`
	Input   string    `json:"input,omitempty"`
	Output  string    `json:"output,omitempty"`
	Metrics MetricMap `json:"metrics,omitempty"`
}

// Project identifies a platform project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Logstream identifies a log stream inside a project.
type Logstream struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchRequest is the common body for the paginated search endpoints.
// Exactly one of the scoping fields is set per call.
type SearchRequest struct {
	LogstreamID  string `json:"logstream_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	TraceID      string `json:"trace_id,omitempty"`
	ExperimentID string `json:"experiment_id,omitempty"`
	PageToken    string `json:"page_token,omitempty"`
	PageSize     int    `json:"page_size,omitempty"`
}

// SessionPage is one page of a session listing.
// An empty NextPageToken marks the last page.
type SessionPage struct {
	Records       []Session `json:"records"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

// TracePage is one page of a trace listing.
type TracePage struct {
	Records       []Trace `json:"records"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// SpanPage is one page of a span listing.
type SpanPage struct {
	Records       []Span `json:"records"`
	NextPageToken string `json:"next_page_token,omitempty"`
}
