// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
)

// Streams are the standard streams a command reads and writes.
// In is nil when stdin is not a terminal, so nothing prompts.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	s := Streams{Out: os.Stdout, Err: os.Stderr}
	if IsTTY() {
		s.In = os.Stdin
	}
	return s
}
