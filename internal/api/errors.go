// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// NotFoundError reports that a referenced resource does not exist.
// Name holds whichever identifier (name or ID) failed to resolve.
type NotFoundError struct {
	Resource string // "project", "logstream", "session", "dataset", "experiment"
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// APIError is a non-2xx response from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *APIError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return e.StatusCode >= 500
}

// IsTransient reports whether err looks like a transient network or API
// failure that a bounded retry may recover from. NotFound is never transient.
func IsTransient(err error) bool {
	if err == nil || IsNotFound(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	// url.Error implements net.Error; anything that hit the wire but
	// produced no HTTP status is treated as transient.
	var netErr net.Error
	return errors.As(err, &netErr)
}
