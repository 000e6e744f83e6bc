// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag is the HTTP transport for the retrieval-augmented chat backend.
//
// The chat endpoint answers a POSTed conversation with a streamed body. Plain
// text bodies are forwarded chunk by chunk; event-stream bodies are parsed as
// SSE with an optional "[DONE]" terminator. End of body is the completion
// signal. Non-2xx responses become *RemoteError and network failures become
// *TransportError. Nothing is retried.
package rag

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultChatURL is the backend chat endpoint.
	DefaultChatURL = "http://localhost:8000/api/rag"

	// DefaultIndexURL is the document indexing endpoint.
	DefaultIndexURL = "http://localhost:8000/api/indexing"

	// DefaultImageURL is the image upload endpoint.
	DefaultImageURL = "http://localhost:8000/api/image"

	// DefaultTimeout applies to non-streaming requests.
	DefaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4096

	readBufferSize = 4096
)

// sharedTransport is used by every client that does not bring its own.
// SECURITY: TLS 1.2+ for remote backends
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 4,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
}

// NewHTTPClient returns a client without an overall timeout; streaming
// requests are bounded by their context instead.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: sharedTransport}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the body POSTed to the chat endpoint.
type ChatRequest struct {
	ID          string          `json:"id"`
	Messages    []model.Message `json:"messages"`
	LLM         string          `json:"llm"`
	APIKey      string          `json:"apiKey,omitempty"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"maxTokens"`
	TopP        float64         `json:"topP"`
}

// Streamer opens a streamed chat completion.
type Streamer interface {
	Stream(ctx context.Context, req ChatRequest, onDelta func(string)) error
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat endpoint.
type Client struct {
	chatURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the chat endpoint at chatURL.
func NewClient(chatURL string, opts ...Option) *Client {
	if chatURL == "" {
		chatURL = DefaultChatURL
	}
	c := &Client{chatURL: chatURL, httpClient: NewHTTPClient()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the chat endpoint.
func (c *Client) URL() string {
	return c.chatURL
}

var _ Streamer = (*Client)(nil)

// Stream POSTs req and calls onDelta for every text delta, in arrival order.
// It returns nil once the body ends. Cancelling ctx aborts the request and
// returns ctx.Err().
func (c *Client) Stream(ctx context.Context, req ChatRequest, onDelta func(string)) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain, text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	log.Debug().Str("chat_id", req.ID).Str("llm", req.LLM).Int("messages", len(req.Messages)).Msg("opening chat stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{URL: c.chatURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(c.chatURL, resp)
	}

	if isEventStream(resp.Header.Get("Content-Type")) {
		err = c.readEvents(ctx, resp.Body, onDelta)
	} else {
		err = c.readText(ctx, resp.Body, onDelta)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{URL: c.chatURL, Err: err}
	}
	return nil
}

// readText forwards raw body chunks, never splitting a UTF-8 sequence.
func (c *Client) readText(ctx context.Context, body io.Reader, onDelta func(string)) error {
	buf := make([]byte, readBufferSize)
	var carry []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := body.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			valid, rest := splitUTF8(chunk)
			carry = append([]byte(nil), rest...)
			if len(valid) > 0 {
				onDelta(string(valid))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(carry) > 0 {
					onDelta(string(carry))
				}
				return nil
			}
			return err
		}
	}
}

// readEvents forwards SSE payloads until EOF or "[DONE]".
func (c *Client) readEvents(ctx context.Context, body io.Reader, onDelta func(string)) error {
	reader := NewSSEReader(body)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if bytes.Equal(bytes.TrimSpace(data), doneSignal) {
			return nil
		}
		if event == "error" {
			return fmt.Errorf("stream error: %s", strings.TrimSpace(string(data)))
		}

		text, finished := decodeDelta(data)
		if text != "" {
			onDelta(text)
		}
		if finished {
			return nil
		}
	}
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/event-stream"
}

// splitUTF8 returns the longest prefix of b that does not end inside a
// multi-byte sequence, and the remainder.
func splitUTF8(b []byte) (valid, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i], b[i:]
			}
			break
		}
	}
	return b, nil
}

func remoteError(url string, resp *http.Response) *RemoteError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := http.StatusText(resp.StatusCode)
	if parts := strings.SplitN(resp.Status, " ", 2); len(parts) == 2 && parts[1] != "" {
		text = parts[1]
	}
	return &RemoteError{
		URL:        url,
		Status:     resp.StatusCode,
		StatusText: text,
		Body:       string(body),
	}
}
