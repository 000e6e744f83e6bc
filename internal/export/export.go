// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/ragchat/internal/storage"
)

// ErrUnknownFormat is returned by For when the format has no exporter.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrEmptyChat is returned when a record has no messages.
var ErrEmptyChat = errors.New("conversation has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a saved conversation to a target format.
type Exporter interface {
	Export(rec storage.ChatRecord) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata writes the header block (id, created, message count).
	IncludeMetadata bool

	// IncludeTimestamps appends per-message times when they are known.
	IncludeTimestamps bool

	// Now stamps the footer. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() Options {
	return Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Now:               time.Now,
	}
}

// For returns the exporter for format ("md", "markdown" or "json").
func For(format string, opts Options) (Exporter, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return &MarkdownExporter{options: opts}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ToFile exports rec into dir and returns the written path. The file name
// is derived from the conversation title and id.
func ToFile(rec storage.ChatRecord, exp Exporter, dir string) (string, error) {
	data, err := exp.Export(rec)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := sanitizeFilename(rec.Title) + "-" + rec.ID + exp.FileExtension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names on
// common platforms and limits the result to 50 runes.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("January 2, 2006 at 3:04 PM")
}
