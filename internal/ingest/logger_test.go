// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"testing"

	"github.com/elastic/metricat/internal/api"
)

type fakeExec struct {
	sessions []api.NewSessionRequest
	traces   []api.NewTraceRequest
	spans    []api.NewSpanRequest
	metrics  [][]string
}

func (f *fakeExec) CreateSession(_ context.Context, _ string, req api.NewSessionRequest) (string, error) {
	f.sessions = append(f.sessions, req)
	return "sess-1", nil
}

func (f *fakeExec) CreateTrace(_ context.Context, _ string, req api.NewTraceRequest) (string, error) {
	f.traces = append(f.traces, req)
	return "tr-1", nil
}

func (f *fakeExec) CreateSpan(_ context.Context, _ string, req api.NewSpanRequest) (string, error) {
	f.spans = append(f.spans, req)
	return "sp-1", nil
}

func (f *fakeExec) ConcludeTrace(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *fakeExec) RequestMetrics(_ context.Context, _, _ string, metrics []string) error {
	f.metrics = append(f.metrics, metrics)
	return nil
}

func TestLogger_FullSession(t *testing.T) {
	exec := &fakeExec{}
	logger := NewLogger(exec, "p-1", "ls-1")
	ctx := context.Background()

	sessionID, err := logger.StartSession(ctx, "Legal Advice Session")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sessionID != "sess-1" || logger.SessionID() != "sess-1" {
		t.Errorf("session ID = %q / %q, want sess-1", sessionID, logger.SessionID())
	}
	if exec.sessions[0].LogstreamID != "ls-1" {
		t.Errorf("session logged to stream %q, want ls-1", exec.sessions[0].LogstreamID)
	}

	if _, err := logger.StartTrace(ctx, "Legal Advice Request", "What should I do?"); err != nil {
		t.Fatalf("StartTrace: %v", err)
	}
	if exec.traces[0].SessionID != "sess-1" {
		t.Errorf("trace parented to %q, want sess-1", exec.traces[0].SessionID)
	}

	if _, err := logger.LogLLMSpan(ctx, LLMSpan{Model: "gpt-4o", Input: "What should I do?", Output: "See a lawyer."}); err != nil {
		t.Fatalf("LogLLMSpan: %v", err)
	}
	if exec.spans[0].TraceID != "tr-1" || exec.spans[0].Type != "llm" {
		t.Errorf("span = %+v, want llm span under tr-1", exec.spans[0])
	}

	if err := logger.ConcludeTrace(ctx, "See a lawyer."); err != nil {
		t.Fatalf("ConcludeTrace: %v", err)
	}
	if err := logger.RequestMetrics(ctx, []string{"Legal Advice Offered"}); err != nil {
		t.Fatalf("RequestMetrics: %v", err)
	}
	if len(exec.metrics) != 1 || exec.metrics[0][0] != "Legal Advice Offered" {
		t.Errorf("metrics requested = %v", exec.metrics)
	}
}

func TestLogger_OrderingGuards(t *testing.T) {
	logger := NewLogger(&fakeExec{}, "p-1", "ls-1")
	ctx := context.Background()

	if _, err := logger.StartTrace(ctx, "t", ""); err == nil {
		t.Error("StartTrace before StartSession should fail")
	}
	if _, err := logger.LogLLMSpan(ctx, LLMSpan{}); err == nil {
		t.Error("LogLLMSpan before StartTrace should fail")
	}
	if err := logger.RequestMetrics(ctx, nil); err == nil {
		t.Error("RequestMetrics before StartSession should fail")
	}

	if _, err := logger.StartSession(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := logger.StartTrace(ctx, "t", ""); err != nil {
		t.Fatal(err)
	}
	if err := logger.ConcludeTrace(ctx, "done"); err != nil {
		t.Fatal(err)
	}
	// Trace is no longer current after conclude.
	if _, err := logger.LogLLMSpan(ctx, LLMSpan{}); err == nil {
		t.Error("LogLLMSpan after ConcludeTrace should fail")
	}
}
