// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// MaxEventSize bounds a single SSE line.
const MaxEventSize = 64 * 1024

// doneSignal terminates an event stream.
var doneSignal = []byte("[DONE]")

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	scanner *bufio.Scanner
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), MaxEventSize)
	return &SSEReader{scanner: sc}
}

// ReadEvent reads the next event, returning its type and joined data lines.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for s.scanner.Scan() {
		line := bytes.TrimRight(s.scanner.Bytes(), "\r")

		// Empty line ends the event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			eventType = ""
			continue
		}

		switch {
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
		case bytes.HasPrefix(line, []byte("data:")):
			data := line[5:]
			if len(data) > 0 && data[0] == ' ' {
				data = data[1:]
			}
			dataLines = append(dataLines, append([]byte(nil), data...))
		}
		// id:, retry: and ":" comments are ignored
	}

	if err := s.scanner.Err(); err != nil {
		return "", nil, err
	}
	if len(dataLines) > 0 {
		return eventType, bytes.Join(dataLines, []byte("\n")), nil
	}
	return "", nil, io.EOF
}

// deltaChunk is an OpenAI-style streaming chunk.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Content *string `json:"content"`
}

// decodeDelta extracts the text of one event payload. Payloads that are not
// JSON objects are taken verbatim.
func decodeDelta(data []byte) (text string, finished bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(data), false
	}
	var chunk deltaChunk
	if err := json.Unmarshal(trimmed, &chunk); err != nil {
		return string(data), false
	}
	if chunk.Content != nil {
		return *chunk.Content, false
	}
	if len(chunk.Choices) == 0 {
		return "", false
	}
	c := chunk.Choices[0]
	return c.Delta.Content, c.FinishReason != ""
}
