// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// RemoteError is a non-2xx response from the backend.
type RemoteError struct {
	URL        string
	Status     int
	StatusText string
	Body       string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remote error %d", e.Status)
	if e.StatusText != "" {
		msg += " " + e.StatusText
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// TransportError is a network failure, timeout or abort before a complete
// response was received.
type TransportError struct {
	URL     string
	Timeout time.Duration // non-zero when the request timed out
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("Request to %s timed out after %dms", e.URL, e.Timeout.Milliseconds())
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the request was aborted by its timeout.
func (e *TransportError) IsTimeout() bool {
	return e.Timeout > 0
}
