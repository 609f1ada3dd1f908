// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"
)

// SearchSessions returns one page of sessions for the request's logstream.
func (c *Client) SearchSessions(ctx context.Context, projectID string, req SearchRequest) (*SessionPage, error) {
	var page SessionPage
	path := fmt.Sprintf("/v1/projects/%s/sessions/search", projectID)
	if err := c.do(ctx, "POST", path, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchTraces returns one page of traces for the request's session,
// logstream, or experiment.
func (c *Client) SearchTraces(ctx context.Context, projectID string, req SearchRequest) (*TracePage, error) {
	var page TracePage
	path := fmt.Sprintf("/v1/projects/%s/traces/search", projectID)
	if err := c.do(ctx, "POST", path, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchSpans returns one page of spans for the request's trace.
func (c *Client) SearchSpans(ctx context.Context, projectID string, req SearchRequest) (*SpanPage, error) {
	var page SpanPage
	path := fmt.Sprintf("/v1/projects/%s/spans/search", projectID)
	if err := c.do(ctx, "POST", path, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
