// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package ingest records sessions, traces, and LLM spans against a
// logstream so the platform can score them.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/metricat/internal/api"
)

// Executor defines the platform operations the logger needs.
// *api.Client implements it.
type Executor interface {
	CreateSession(ctx context.Context, projectID string, req api.NewSessionRequest) (string, error)
	CreateTrace(ctx context.Context, projectID string, req api.NewTraceRequest) (string, error)
	CreateSpan(ctx context.Context, projectID string, req api.NewSpanRequest) (string, error)
	ConcludeTrace(ctx context.Context, projectID, traceID, output string) error
	RequestMetrics(ctx context.Context, projectID, sessionID string, metrics []string) error
}

// LLMSpan describes one model call to record under the current trace.
type LLMSpan struct {
	Model        string
	Input        string
	Output       string
	InputTokens  int
	OutputTokens int
	StartedAt    time.Time
	EndedAt      time.Time
}

// Logger records one session at a time. It is not safe for concurrent use.
type Logger struct {
	exec        Executor
	projectID   string
	logstreamID string

	sessionID string
	traceID   string
}

// NewLogger creates a logger bound to a project and logstream.
func NewLogger(exec Executor, projectID, logstreamID string) *Logger {
	return &Logger{exec: exec, projectID: projectID, logstreamID: logstreamID}
}

// SessionID returns the active session ID ("" before StartSession).
func (l *Logger) SessionID() string {
	return l.sessionID
}

// StartSession opens a new session and makes it current.
func (l *Logger) StartSession(ctx context.Context, name string) (string, error) {
	id, err := l.exec.CreateSession(ctx, l.projectID, api.NewSessionRequest{
		LogstreamID: l.logstreamID,
		Name:        name,
	})
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	l.sessionID = id
	l.traceID = ""
	return id, nil
}

// StartTrace opens a new trace under the current session.
func (l *Logger) StartTrace(ctx context.Context, name, input string) (string, error) {
	if l.sessionID == "" {
		return "", fmt.Errorf("no active session")
	}
	id, err := l.exec.CreateTrace(ctx, l.projectID, api.NewTraceRequest{
		SessionID: l.sessionID,
		Name:      name,
		Input:     input,
	})
	if err != nil {
		return "", fmt.Errorf("start trace: %w", err)
	}
	l.traceID = id
	return id, nil
}

// LogLLMSpan records a model call under the current trace.
func (l *Logger) LogLLMSpan(ctx context.Context, span LLMSpan) (string, error) {
	if l.traceID == "" {
		return "", fmt.Errorf("no active trace")
	}
	id, err := l.exec.CreateSpan(ctx, l.projectID, api.NewSpanRequest{
		TraceID:      l.traceID,
		Type:         "llm",
		Model:        span.Model,
		Input:        span.Input,
		Output:       span.Output,
		InputTokens:  span.InputTokens,
		OutputTokens: span.OutputTokens,
		StartedAt:    span.StartedAt,
		EndedAt:      span.EndedAt,
	})
	if err != nil {
		return "", fmt.Errorf("log llm span: %w", err)
	}
	return id, nil
}

// ConcludeTrace marks the current trace complete with its final output.
func (l *Logger) ConcludeTrace(ctx context.Context, output string) error {
	if l.traceID == "" {
		return fmt.Errorf("no active trace")
	}
	if err := l.exec.ConcludeTrace(ctx, l.projectID, l.traceID, output); err != nil {
		return fmt.Errorf("conclude trace: %w", err)
	}
	l.traceID = ""
	return nil
}

// RequestMetrics asks the platform to score the current session.
func (l *Logger) RequestMetrics(ctx context.Context, metrics []string) error {
	if l.sessionID == "" {
		return fmt.Errorf("no active session")
	}
	if err := l.exec.RequestMetrics(ctx, l.projectID, l.sessionID, metrics); err != nil {
		return fmt.Errorf("request metrics: %w", err)
	}
	return nil
}
