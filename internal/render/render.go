// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns conversations into terminal markdown and caches the
// result per conversation path.
package render

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/storage"
)

// DefaultWidth is used when the caller has no terminal width.
const DefaultWidth = 80

type entry struct {
	width       int
	fingerprint uint64
	output      string
}

// Cache renders transcripts with glamour and keeps one rendering per path.
type Cache struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	entries   map[string]entry
}

var _ storage.Invalidator = (*Cache)(nil)

// NewCache creates a cache. style is "auto", "plain" or a glamour standard
// style name such as "dark" or "light".
func NewCache(style string) *Cache {
	if style == "" {
		style = "auto"
	}
	return &Cache{
		style:     style,
		renderers: make(map[int]*glamour.TermRenderer),
		entries:   make(map[string]entry),
	}
}

// Render returns the rendered transcript of msgs at width, reusing the
// cached rendering for path when nothing changed.
func (c *Cache) Render(path string, width int, msgs []model.Message) string {
	if width <= 0 {
		width = DefaultWidth
	}
	fp := fingerprint(msgs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok && e.width == width && e.fingerprint == fp {
		return e.output
	}
	out := c.renderLocked(width, Markdown(msgs))
	c.entries[path] = entry{width: width, fingerprint: fp, output: out}
	return out
}

// Invalidate drops the cached rendering of path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Cached reports whether path has a cached rendering.
func (c *Cache) Cached(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[path]
	return ok
}

// Text renders one markdown document without caching.
func (c *Cache) Text(width int, md string) string {
	if width <= 0 {
		width = DefaultWidth
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked(width, md)
}

func (c *Cache) renderLocked(width int, md string) string {
	if c.style == "plain" {
		return md
	}
	r, ok := c.renderers[width]
	if !ok {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if c.style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(c.style))
		}
		var err error
		r, err = glamour.NewTermRenderer(opts...)
		if err != nil {
			// Fallback to plain text if renderer initialization fails
			r = nil
		}
		c.renderers[width] = r
	}
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Markdown formats msgs as one markdown document with a heading per turn.
func Markdown(msgs []model.Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("### ")
		sb.WriteString(m.Role.DisplayName())
		sb.WriteString("\n\n")
		if m.Content == "" && m.Role == model.RoleAssistant {
			sb.WriteString("_..._")
			continue
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}

func fingerprint(msgs []model.Message) uint64 {
	h := fnv.New64a()
	for _, m := range msgs {
		h.Write([]byte(m.ID))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
