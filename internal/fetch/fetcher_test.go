// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elastic/metricat/internal/api"
)

// fakeExec is a scriptable Executor. Function fields override behavior;
// unset fields return empty results.
type fakeExec struct {
	getSession    func(poll int) (*api.Session, error)
	searchTraces  func(req api.SearchRequest) (*api.TracePage, error)
	searchSpans   func(req api.SearchRequest) (*api.SpanPage, error)
	searchSess    func(req api.SearchRequest) (*api.SessionPage, error)
	resolveProj   func(nameOrID string) (*api.Project, error)
	resolveStream func(projectID, nameOrID string) (*api.Logstream, error)

	polls int // GetSession call counter
}

func (f *fakeExec) GetSession(_ context.Context, _, sessionID string) (*api.Session, error) {
	f.polls++
	if f.getSession != nil {
		return f.getSession(f.polls)
	}
	return &api.Session{ID: sessionID}, nil
}

func (f *fakeExec) SearchTraces(_ context.Context, _ string, req api.SearchRequest) (*api.TracePage, error) {
	if f.searchTraces != nil {
		return f.searchTraces(req)
	}
	return &api.TracePage{}, nil
}

func (f *fakeExec) SearchSpans(_ context.Context, _ string, req api.SearchRequest) (*api.SpanPage, error) {
	if f.searchSpans != nil {
		return f.searchSpans(req)
	}
	return &api.SpanPage{}, nil
}

func (f *fakeExec) SearchSessions(_ context.Context, _ string, req api.SearchRequest) (*api.SessionPage, error) {
	if f.searchSess != nil {
		return f.searchSess(req)
	}
	return &api.SessionPage{}, nil
}

func (f *fakeExec) ResolveProject(_ context.Context, nameOrID string) (*api.Project, error) {
	if f.resolveProj != nil {
		return f.resolveProj(nameOrID)
	}
	return &api.Project{ID: "p-1", Name: nameOrID}, nil
}

func (f *fakeExec) ResolveLogstream(_ context.Context, projectID, nameOrID string) (*api.Logstream, error) {
	if f.resolveStream != nil {
		return f.resolveStream(projectID, nameOrID)
	}
	return &api.Logstream{ID: "ls-1", Name: nameOrID}, nil
}

func quickOpts() Options {
	return Options{
		MaxWait:      time.Minute,
		PollInterval: 0,
		RetryDelay:   time.Nanosecond,
	}
}

func TestSessionMetrics_ReportIDMatches(t *testing.T) {
	exec := &fakeExec{
		getSession: func(int) (*api.Session, error) {
			return &api.Session{
				ID:      "sess-42",
				Metrics: api.MetricMap{"completeness": {Value: 0.9, Status: api.MetricComputed}},
			}, nil
		},
	}
	f := New(exec, quickOpts())

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-42")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if report.ID != "sess-42" {
		t.Errorf("report.ID = %q, want %q", report.ID, "sess-42")
	}
	if report.TimedOut {
		t.Error("report.TimedOut = true for a converged fetch")
	}
}

func TestSessionMetrics_PaginationExhaustive(t *testing.T) {
	// Trace listing served as pages of sizes [2,2,1].
	pages := map[string]*api.TracePage{
		"": {
			Records:       []api.Trace{{ID: "tr-1"}, {ID: "tr-2"}},
			NextPageToken: "t2",
		},
		"t2": {
			Records:       []api.Trace{{ID: "tr-3"}, {ID: "tr-4"}},
			NextPageToken: "t3",
		},
		"t3": {
			Records: []api.Trace{{ID: "tr-5"}},
		},
	}
	calls := 0
	exec := &fakeExec{
		searchTraces: func(req api.SearchRequest) (*api.TracePage, error) {
			calls++
			page, ok := pages[req.PageToken]
			if !ok {
				t.Fatalf("unexpected page token %q", req.PageToken)
			}
			return page, nil
		},
	}
	f := New(exec, quickOpts())

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("trace listing requested %d times, want 3 (no re-request after last page)", calls)
	}
	if len(report.Traces) != 5 {
		t.Fatalf("got %d traces, want 5", len(report.Traces))
	}
	for i, want := range []string{"tr-1", "tr-2", "tr-3", "tr-4", "tr-5"} {
		if report.Traces[i].ID != want {
			t.Errorf("trace[%d].ID = %q, want %q (page order must be preserved)", i, report.Traces[i].ID, want)
		}
	}
}

func TestSessionMetrics_ComputedNeverRetracts(t *testing.T) {
	// The API regresses "toxicity" to pending on poll 2; the report must
	// keep the computed result from poll 1.
	exec := &fakeExec{
		getSession: func(poll int) (*api.Session, error) {
			switch poll {
			case 1:
				return &api.Session{ID: "sess-1", Metrics: api.MetricMap{
					"toxicity":  {Value: false, Status: api.MetricComputed},
					"adherence": {Value: nil, Status: api.MetricPending},
				}}, nil
			default:
				return &api.Session{ID: "sess-1", Metrics: api.MetricMap{
					"toxicity":  {Value: nil, Status: api.MetricPending},
					"adherence": {Value: 0.7, Status: api.MetricComputed},
				}}, nil
			}
		},
	}
	f := New(exec, quickOpts())

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if exec.polls != 2 {
		t.Errorf("polled %d times, want 2", exec.polls)
	}
	tox := report.Metrics["toxicity"]
	if tox.Status != api.MetricComputed {
		t.Errorf("toxicity.Status = %q, want computed (must not retract)", tox.Status)
	}
	if tox.Value != false {
		t.Errorf("toxicity.Value = %v, want false", tox.Value)
	}
}

func TestSessionMetrics_ZeroWaitReturnsBestEffort(t *testing.T) {
	exec := &fakeExec{
		getSession: func(int) (*api.Session, error) {
			return &api.Session{ID: "sess-1", Metrics: api.MetricMap{
				"stuck": {Status: api.MetricPending},
			}}, nil
		},
	}
	f := New(exec, Options{MaxWait: 0, PollInterval: time.Hour})

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if exec.polls != 1 {
		t.Errorf("polled %d times, want exactly 1 with MaxWait=0", exec.polls)
	}
	if !report.TimedOut {
		t.Error("report.TimedOut = false, want true")
	}
	if got := report.Metrics["stuck"].Status; got != api.MetricPending {
		t.Errorf("stuck.Status = %q, want pending (callers must distinguish no-value from computed zero)", got)
	}
}

func TestSessionMetrics_NotFound(t *testing.T) {
	exec := &fakeExec{
		getSession: func(int) (*api.Session, error) {
			return nil, &api.NotFoundError{Resource: "session", Name: "nope"}
		},
	}
	f := New(exec, quickOpts())

	report, err := f.SessionMetrics(context.Background(), "p-1", "nope")
	if report != nil {
		t.Error("got a report for an unknown session, want nil")
	}
	if !api.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if exec.polls != 1 {
		t.Errorf("polled %d times, want 1 (NotFound is not retried)", exec.polls)
	}
}

func TestSessionMetrics_RetriesTransientListing(t *testing.T) {
	attempts := 0
	exec := &fakeExec{
		searchSpans: func(req api.SearchRequest) (*api.SpanPage, error) {
			attempts++
			if attempts <= 2 {
				return nil, &api.APIError{StatusCode: 503, Body: "overloaded"}
			}
			return &api.SpanPage{Records: []api.Span{{ID: "sp-1", TraceID: "tr-1"}}}, nil
		},
		searchTraces: func(req api.SearchRequest) (*api.TracePage, error) {
			return &api.TracePage{Records: []api.Trace{{ID: "tr-1", SessionID: "sess-1"}}}, nil
		},
	}
	f := New(exec, Options{MaxWait: time.Minute, RetryBudget: 2, RetryDelay: time.Nanosecond})

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("span listing attempted %d times, want 3 (two retries then success)", attempts)
	}
	if len(report.Traces) != 1 || len(report.Traces[0].Spans) != 1 {
		t.Fatalf("report missing span data after retry: %+v", report)
	}
}

func TestSessionMetrics_RetryBudgetExhausted(t *testing.T) {
	exec := &fakeExec{
		searchTraces: func(req api.SearchRequest) (*api.TracePage, error) {
			if req.PageToken == "t2" {
				return nil, &api.APIError{StatusCode: 503, Body: "overloaded"}
			}
			return &api.TracePage{Records: []api.Trace{{ID: "tr-1"}}, NextPageToken: "t2"}, nil
		},
	}
	f := New(exec, Options{MaxWait: time.Minute, RetryBudget: 1, RetryDelay: time.Nanosecond})

	_, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	var ff *FetchFailedError
	if !errors.As(err, &ff) {
		t.Fatalf("err = %v, want FetchFailedError", err)
	}
	if ff.Level != "trace" {
		t.Errorf("Level = %q, want trace", ff.Level)
	}
	if ff.PageToken != "t2" {
		t.Errorf("PageToken = %q, want t2 (cursor at which the fetch failed)", ff.PageToken)
	}
}

func TestSessionMetrics_StabilizationForBareMetrics(t *testing.T) {
	// Bare values without status flags: done once two consecutive polls
	// return identical snapshots.
	exec := &fakeExec{
		getSession: func(poll int) (*api.Session, error) {
			m := api.MetricMap{"score": {Value: 0.25}}
			if poll == 1 {
				m = api.MetricMap{"score": {Value: 0.1}}
			}
			return &api.Session{ID: "sess-1", Metrics: m}, nil
		},
	}
	f := New(exec, quickOpts())

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if exec.polls != 3 {
		t.Errorf("polled %d times, want 3 (poll 2 changed the value, poll 3 confirmed it)", exec.polls)
	}
	if got := report.Metrics["score"].Value; got != 0.25 {
		t.Errorf("score.Value = %v, want 0.25", got)
	}
}

func TestSessionMetrics_EndToEndConvergence(t *testing.T) {
	// sess-1 → tr-1 → {sp-1, sp-2}; "Legal Advice Offered" pending on
	// poll 1, computed=false on poll 2 at all three levels.
	const metric = "Legal Advice Offered"
	state := func(poll int) api.MetricResult {
		if poll < 2 {
			return api.MetricResult{Status: api.MetricPending}
		}
		return api.MetricResult{Value: false, Status: api.MetricComputed}
	}
	exec := &fakeExec{}
	exec.getSession = func(poll int) (*api.Session, error) {
		return &api.Session{ID: "sess-1", Metrics: api.MetricMap{metric: state(poll)}}, nil
	}
	exec.searchTraces = func(api.SearchRequest) (*api.TracePage, error) {
		return &api.TracePage{Records: []api.Trace{
			{ID: "tr-1", SessionID: "sess-1", Metrics: api.MetricMap{metric: state(exec.polls)}},
		}}, nil
	}
	exec.searchSpans = func(api.SearchRequest) (*api.SpanPage, error) {
		return &api.SpanPage{Records: []api.Span{
			{ID: "sp-1", TraceID: "tr-1", Metrics: api.MetricMap{metric: state(exec.polls)}},
			{ID: "sp-2", TraceID: "tr-1", Metrics: api.MetricMap{metric: state(exec.polls)}},
		}}, nil
	}

	var events []ProgressEvent
	opts := quickOpts()
	opts.Progress = func(e ProgressEvent) { events = append(events, e) }
	f := New(exec, opts)

	report, err := f.SessionMetrics(context.Background(), "p-1", "sess-1")
	if err != nil {
		t.Fatalf("SessionMetrics returned error: %v", err)
	}
	if exec.polls != 2 {
		t.Errorf("polled %d times, want 2", exec.polls)
	}

	check := func(where string, m api.MetricMap) {
		t.Helper()
		res, ok := m[metric]
		if !ok {
			t.Fatalf("%s: metric missing", where)
		}
		if res.Status != api.MetricComputed || res.Value != false {
			t.Errorf("%s: got %+v, want computed false", where, res)
		}
	}
	check("session", report.Metrics)
	if len(report.Traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(report.Traces))
	}
	check("trace", report.Traces[0].Metrics)
	if len(report.Traces[0].Spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(report.Traces[0].Spans))
	}
	check("span sp-1", report.Traces[0].Spans[0].Metrics)
	check("span sp-2", report.Traces[0].Spans[1].Metrics)

	if len(events) == 0 || !events[len(events)-1].Done {
		t.Error("expected a final Done progress event")
	}
	if report.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", report.PendingCount())
	}
}

func TestLogstreamMetrics_SessionsInListingOrder(t *testing.T) {
	exec := &fakeExec{
		searchSess: func(req api.SearchRequest) (*api.SessionPage, error) {
			if req.LogstreamID != "ls-1" {
				t.Fatalf("LogstreamID = %q, want ls-1", req.LogstreamID)
			}
			if req.PageToken == "" {
				return &api.SessionPage{Records: []api.Session{{ID: "sess-b"}}, NextPageToken: "p2"}, nil
			}
			return &api.SessionPage{Records: []api.Session{{ID: "sess-a"}}}, nil
		},
	}
	f := New(exec, quickOpts())

	report, err := f.LogstreamMetrics(context.Background(), "My Project", "prod")
	if err != nil {
		t.Fatalf("LogstreamMetrics returned error: %v", err)
	}
	if report.ProjectID != "p-1" || report.LogstreamID != "ls-1" {
		t.Errorf("resolution gave project %q stream %q", report.ProjectID, report.LogstreamID)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(report.Sessions))
	}
	// Listing order, not alphabetical.
	if report.Sessions[0].ID != "sess-b" || report.Sessions[1].ID != "sess-a" {
		t.Errorf("session order = [%s %s], want [sess-b sess-a]", report.Sessions[0].ID, report.Sessions[1].ID)
	}
}

func TestLogstreamMetrics_UnresolvedNamesFail(t *testing.T) {
	exec := &fakeExec{
		resolveProj: func(nameOrID string) (*api.Project, error) {
			return nil, &api.NotFoundError{Resource: "project", Name: nameOrID}
		},
	}
	f := New(exec, quickOpts())

	report, err := f.LogstreamMetrics(context.Background(), "ghost", "prod")
	if report != nil {
		t.Error("got a partial report for an unresolved project, want nil")
	}
	var nf *api.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.Name != "ghost" {
		t.Errorf("NotFoundError names %q, want the failing identifier %q", nf.Name, "ghost")
	}
}

func TestSessionMetrics_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &fakeExec{
		getSession: func(poll int) (*api.Session, error) {
			if poll == 2 {
				cancel()
			}
			return &api.Session{ID: "sess-1", Metrics: api.MetricMap{
				"stuck": {Status: api.MetricPending},
			}}, nil
		},
	}
	f := New(exec, quickOpts())

	_, err := f.SessionMetrics(ctx, "p-1", "sess-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
