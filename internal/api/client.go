// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package api provides a client for the LLM observability platform REST API.
//
// The client is organized the same way across concerns:
// - Core client and transport helpers: client.go
// - Paginated session/trace/span listings: search.go
// - Project and logstream name resolution: resolve.go
// - Session/trace/span ingestion: ingest.go
// - Datasets and experiments: datasets.go, experiments.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client handles communication with the platform API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOptions holds configuration for creating a new client.
type ClientOptions struct {
	BaseURL string        // Platform API base URL
	APIKey  string        // API key for authentication
	Timeout time.Duration // Per-request timeout
}

// NewClient creates a new platform API client from options.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks if the platform API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "GET", "/v1/health", nil, nil)
}

// GetSession fetches the current state of a single session.
// A missing session yields a NotFoundError.
func (c *Client) GetSession(ctx context.Context, projectID, sessionID string) (*Session, error) {
	var session Session
	path := fmt.Sprintf("/v1/projects/%s/sessions/%s", projectID, sessionID)
	if err := c.do(ctx, "GET", path, nil, &session); err != nil {
		return nil, wrapNotFound(err, "session", sessionID)
	}
	return &session, nil
}

// do executes one JSON round trip. in (if non-nil) is marshaled as the
// request body; out (if non-nil) receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// wrapNotFound converts a 404 APIError into a NotFoundError for the given
// resource; every other error passes through unchanged.
func wrapNotFound(err error, resource, name string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return &NotFoundError{Resource: resource, Name: name}
	}
	return err
}
