// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package fetch implements the hierarchical metrics fetcher: it polls the
// platform until asynchronously computed metrics land, paginates every
// listing to exhaustion, and assembles session → trace → span reports.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/metricat/internal/api"
)

// Executor defines the platform operations the fetcher needs.
// *api.Client implements it.
type Executor interface {
	GetSession(ctx context.Context, projectID, sessionID string) (*api.Session, error)
	SearchSessions(ctx context.Context, projectID string, req api.SearchRequest) (*api.SessionPage, error)
	SearchTraces(ctx context.Context, projectID string, req api.SearchRequest) (*api.TracePage, error)
	SearchSpans(ctx context.Context, projectID string, req api.SearchRequest) (*api.SpanPage, error)
	ResolveProject(ctx context.Context, nameOrID string) (*api.Project, error)
	ResolveLogstream(ctx context.Context, projectID, nameOrID string) (*api.Logstream, error)
}

// Options bound a fetch. The zero value polls exactly once per session.
type Options struct {
	MaxWait      time.Duration // Hard ceiling on total wait per session (0 = single poll)
	PollInterval time.Duration // Sleep between polls
	PageSize     int           // Listing page size (default 100)
	RetryBudget  int           // Transient-failure retries per page fetch (default 3)
	RetryDelay   time.Duration // Initial retry delay, doubles per attempt (default 1s)
	Progress     ProgressFunc  // Optional observer, never affects the result
}

// ProgressFunc receives observational updates while a fetch converges.
type ProgressFunc func(e ProgressEvent)

// ProgressEvent describes the state of one poll.
type ProgressEvent struct {
	SessionID string
	Poll      int  // 1-based poll counter
	Pending   int  // metrics still pending across all levels
	Done      bool // fetch finished (converged or timed out)
	TimedOut  bool // wait budget exhausted with metrics still pending
}

// FetchFailedError reports a transient failure that outlived the retry
// budget, with enough context to resume manually.
type FetchFailedError struct {
	Level     string // "session", "trace", or "span"
	PageToken string // cursor at which the listing failed ("" = first page)
	Err       error
}

func (e *FetchFailedError) Error() string {
	if e.PageToken == "" {
		return fmt.Sprintf("fetch failed at %s level: %v", e.Level, e.Err)
	}
	return fmt.Sprintf("fetch failed at %s level (page token %q): %v", e.Level, e.PageToken, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// Default values for Options.
const (
	DefaultPageSize    = 100
	DefaultRetryBudget = 3
	DefaultRetryDelay  = time.Second
)

// Fetcher assembles metrics-populated snapshots of sessions and logstreams.
// A Fetcher is self-consistent within one call but not reentrant across
// concurrent calls sharing the same Options.Progress.
type Fetcher struct {
	exec Executor
	opts Options
}

// New creates a Fetcher. Zero option fields get defaults.
func New(exec Executor, opts Options) *Fetcher {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.RetryBudget < 0 {
		opts.RetryBudget = 0
	} else if opts.RetryBudget == 0 {
		opts.RetryBudget = DefaultRetryBudget
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Fetcher{exec: exec, opts: opts}
}

// SessionMetrics polls a session until every metric reaches a terminal
// status or the wait budget runs out, fetching the complete trace/span tree
// on every poll. Exhausting the budget is not an error: the best-available
// snapshot is returned with TimedOut set and pending metrics marked as such.
func (f *Fetcher) SessionMetrics(ctx context.Context, projectID, sessionID string) (*SessionReport, error) {
	deadline := time.Now().Add(f.opts.MaxWait)

	var prev *SessionReport
	for poll := 1; ; poll++ {
		report, err := f.snapshotSession(ctx, projectID, sessionID)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			mergeTerminal(prev, report)
		}

		pending, bare := report.pendingAndBare()
		done := false
		if bare == 0 {
			// Every metric carries a status flag: done once none is pending.
			done = pending == 0
		} else {
			// Some scorers report bare values; fall back to snapshot
			// stability across two consecutive polls.
			done = pending == 0 && prev != nil && snapshotsEqual(prev, report)
		}

		if done {
			f.progress(ProgressEvent{SessionID: sessionID, Poll: poll, Pending: pending, Done: true})
			return report, nil
		}

		// Hard ceiling, checked before each sleep.
		if !time.Now().Before(deadline) {
			report.TimedOut = true
			f.progress(ProgressEvent{SessionID: sessionID, Poll: poll, Pending: pending, Done: true, TimedOut: true})
			return report, nil
		}

		f.progress(ProgressEvent{SessionID: sessionID, Poll: poll, Pending: pending})
		if err := sleep(ctx, f.opts.PollInterval); err != nil {
			return nil, err
		}
		prev = report
	}
}

// LogstreamMetrics resolves the project and logstream, then fetches a full
// SessionReport for every session in the stream, in listing order.
func (f *Fetcher) LogstreamMetrics(ctx context.Context, project, logstream string) (*LogstreamReport, error) {
	proj, err := f.exec.ResolveProject(ctx, project)
	if err != nil {
		return nil, err
	}
	ls, err := f.exec.ResolveLogstream(ctx, proj.ID, logstream)
	if err != nil {
		return nil, err
	}

	sessions, err := f.collectSessions(ctx, proj.ID, ls.ID)
	if err != nil {
		return nil, err
	}

	report := &LogstreamReport{
		Project:     proj.Name,
		ProjectID:   proj.ID,
		Logstream:   ls.Name,
		LogstreamID: ls.ID,
		Sessions:    make([]SessionReport, 0, len(sessions)),
	}
	for _, s := range sessions {
		sr, err := f.SessionMetrics(ctx, proj.ID, s.ID)
		if err != nil {
			return nil, err
		}
		report.Sessions = append(report.Sessions, *sr)
	}
	return report, nil
}

// snapshotSession fetches the session's current state with the complete
// trace and span listings underneath it.
func (f *Fetcher) snapshotSession(ctx context.Context, projectID, sessionID string) (*SessionReport, error) {
	var session *api.Session
	err := f.retry(ctx, func() error {
		var err error
		session, err = f.exec.GetSession(ctx, projectID, sessionID)
		return err
	})
	if err != nil {
		if api.IsNotFound(err) {
			return nil, err
		}
		return nil, &FetchFailedError{Level: "session", Err: err}
	}

	traces, err := f.collectTraces(ctx, projectID, sessionID)
	if err != nil {
		return nil, err
	}

	report := &SessionReport{
		ID:      session.ID,
		Name:    session.Name,
		Status:  session.Status,
		Metrics: session.Metrics,
		Traces:  make([]TraceReport, 0, len(traces)),
	}
	for _, tr := range traces {
		spans, err := f.collectSpans(ctx, projectID, tr.ID)
		if err != nil {
			return nil, err
		}
		trReport := TraceReport{
			ID:      tr.ID,
			Name:    tr.Name,
			Input:   tr.Input,
			Output:  tr.Output,
			Metrics: tr.Metrics,
			Spans:   make([]SpanReport, 0, len(spans)),
		}
		for _, sp := range spans {
			trReport.Spans = append(trReport.Spans, SpanReport{ID: sp.ID, Type: sp.Type, Metrics: sp.Metrics})
		}
		report.Traces = append(report.Traces, trReport)
	}
	return report, nil
}

// collectSessions paginates the session listing to exhaustion.
func (f *Fetcher) collectSessions(ctx context.Context, projectID, logstreamID string) ([]api.Session, error) {
	var all []api.Session
	token := ""
	for {
		var page *api.SessionPage
		err := f.retry(ctx, func() error {
			var err error
			page, err = f.exec.SearchSessions(ctx, projectID, api.SearchRequest{
				LogstreamID: logstreamID,
				PageToken:   token,
				PageSize:    f.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return nil, &FetchFailedError{Level: "session", PageToken: token, Err: err}
		}
		all = append(all, page.Records...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// collectTraces paginates a session's trace listing to exhaustion.
func (f *Fetcher) collectTraces(ctx context.Context, projectID, sessionID string) ([]api.Trace, error) {
	var all []api.Trace
	token := ""
	for {
		var page *api.TracePage
		err := f.retry(ctx, func() error {
			var err error
			page, err = f.exec.SearchTraces(ctx, projectID, api.SearchRequest{
				SessionID: sessionID,
				PageToken: token,
				PageSize:  f.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return nil, &FetchFailedError{Level: "trace", PageToken: token, Err: err}
		}
		all = append(all, page.Records...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// collectSpans paginates a trace's span listing to exhaustion.
func (f *Fetcher) collectSpans(ctx context.Context, projectID, traceID string) ([]api.Span, error) {
	var all []api.Span
	token := ""
	for {
		var page *api.SpanPage
		err := f.retry(ctx, func() error {
			var err error
			page, err = f.exec.SearchSpans(ctx, projectID, api.SearchRequest{
				TraceID:   traceID,
				PageToken: token,
				PageSize:  f.opts.PageSize,
			})
			return err
		})
		if err != nil {
			return nil, &FetchFailedError{Level: "span", PageToken: token, Err: err}
		}
		all = append(all, page.Records...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// retry runs fn, retrying transient failures up to the budget with a
// doubling delay. Non-transient errors (NotFound, 4xx) return immediately.
func (f *Fetcher) retry(ctx context.Context, fn func() error) error {
	delay := f.opts.RetryDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !api.IsTransient(err) || attempt >= f.opts.RetryBudget {
			return err
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
}

func (f *Fetcher) progress(e ProgressEvent) {
	if f.opts.Progress != nil {
		f.opts.Progress(e)
	}
}

// mergeTerminal enforces that a metric observed in a terminal state never
// regresses to pending in a later poll of the same fetch.
func mergeTerminal(prev, cur *SessionReport) {
	mergeMetricMap(prev.Metrics, cur.Metrics)

	prevTraces := make(map[string]*TraceReport, len(prev.Traces))
	for i := range prev.Traces {
		prevTraces[prev.Traces[i].ID] = &prev.Traces[i]
	}
	for i := range cur.Traces {
		pt, ok := prevTraces[cur.Traces[i].ID]
		if !ok {
			continue
		}
		mergeMetricMap(pt.Metrics, cur.Traces[i].Metrics)

		prevSpans := make(map[string]*SpanReport, len(pt.Spans))
		for j := range pt.Spans {
			prevSpans[pt.Spans[j].ID] = &pt.Spans[j]
		}
		for j := range cur.Traces[i].Spans {
			if ps, ok := prevSpans[cur.Traces[i].Spans[j].ID]; ok {
				mergeMetricMap(ps.Metrics, cur.Traces[i].Spans[j].Metrics)
			}
		}
	}
}

func mergeMetricMap(prev, cur api.MetricMap) {
	for name, prevRes := range prev {
		if prevRes.Status != api.MetricComputed && prevRes.Status != api.MetricUnavailable {
			continue
		}
		if curRes, ok := cur[name]; ok && curRes.Status == api.MetricPending {
			cur[name] = prevRes
		}
	}
}

// pendingAndBare counts pending metrics and metrics without a status flag.
func (r *SessionReport) pendingAndBare() (pending, bare int) {
	count := func(m api.MetricMap) {
		for _, res := range m {
			switch res.Status {
			case api.MetricPending:
				pending++
			case "":
				bare++
			}
		}
	}
	count(r.Metrics)
	for _, tr := range r.Traces {
		count(tr.Metrics)
		for _, sp := range tr.Spans {
			count(sp.Metrics)
		}
	}
	return pending, bare
}

// snapshotsEqual compares two reports structurally. JSON marshaling sorts
// map keys, so equal trees produce equal bytes.
func snapshotsEqual(a, b *SessionReport) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// sleep waits for d, returning early if ctx is canceled. A non-positive d
// only checks for cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
