// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
	"time"
)

// NewSessionRequest starts a session in a logstream.
type NewSessionRequest struct {
	LogstreamID string `json:"logstream_id"`
	Name        string `json:"name,omitempty"`
}

// NewTraceRequest starts a trace in a session.
type NewTraceRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
	Input     string `json:"input,omitempty"`
}

// NewSpanRequest records one unit of work under a trace.
type NewSpanRequest struct {
	TraceID      string    `json:"trace_id"`
	Type         string    `json:"type"` // llm, retriever, tool
	Model        string    `json:"model,omitempty"`
	Input        string    `json:"input,omitempty"`
	Output       string    `json:"output,omitempty"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	EndedAt      time.Time `json:"ended_at,omitempty"`
}

// created is the common response shape for ingest endpoints.
type created struct {
	ID string `json:"id"`
}

// CreateSession starts a new session and returns its ID.
func (c *Client) CreateSession(ctx context.Context, projectID string, req NewSessionRequest) (string, error) {
	var resp created
	path := fmt.Sprintf("/v1/projects/%s/sessions", projectID)
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateTrace starts a new trace and returns its ID.
func (c *Client) CreateTrace(ctx context.Context, projectID string, req NewTraceRequest) (string, error) {
	var resp created
	path := fmt.Sprintf("/v1/projects/%s/traces", projectID)
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateSpan records a span and returns its ID.
func (c *Client) CreateSpan(ctx context.Context, projectID string, req NewSpanRequest) (string, error) {
	var resp created
	path := fmt.Sprintf("/v1/projects/%s/spans", projectID)
	if err := c.do(ctx, "POST", path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ConcludeTrace marks a trace complete and sets its output.
func (c *Client) ConcludeTrace(ctx context.Context, projectID, traceID, output string) error {
	req := struct {
		Output string `json:"output,omitempty"`
	}{Output: output}
	path := fmt.Sprintf("/v1/projects/%s/traces/%s/conclude", projectID, traceID)
	return c.do(ctx, "POST", path, req, nil)
}

// RequestMetrics asks the platform to compute the named metrics for a
// session. Computation is asynchronous; results land via the search and
// get-session endpoints with status pending until scored.
func (c *Client) RequestMetrics(ctx context.Context, projectID, sessionID string, metrics []string) error {
	req := struct {
		Metrics []string `json:"metrics"`
	}{Metrics: metrics}
	path := fmt.Sprintf("/v1/projects/%s/sessions/%s/metrics", projectID, sessionID)
	return c.do(ctx, "POST", path, req, nil)
}
