// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// FetchWithTimeout POSTs body to url and returns the response body of a 2xx
// answer. The request is aborted after timeout, which yields a
// *TransportError carrying the timeout. Cancelling ctx returns ctx.Err().
func FetchWithTimeout(ctx context.Context, hc *http.Client, url, contentType string, body []byte, timeout time.Duration) ([]byte, error) {
	if hc == nil {
		hc = NewHTTPClient()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, classify(ctx, reqCtx, url, timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, remoteError(url, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, reqCtx, url, timeout, err)
	}
	return data, nil
}

func classify(parent, reqCtx context.Context, url string, timeout time.Duration, err error) error {
	if parentErr := parent.Err(); parentErr != nil {
		return parentErr
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &TransportError{URL: url, Timeout: timeout, Err: context.DeadlineExceeded}
	}
	return &TransportError{URL: url, Err: err}
}
