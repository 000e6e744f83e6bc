// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/storage"
)

// MarkdownExporter writes a conversation as a Markdown document.
type MarkdownExporter struct {
	options Options
}

// Export renders rec as Markdown.
func (e *MarkdownExporter) Export(rec storage.ChatRecord) ([]byte, error) {
	if len(rec.Messages) == 0 {
		return nil, ErrEmptyChat
	}

	var sb strings.Builder
	title := rec.Title
	if title == "" {
		title = "Conversation " + rec.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "- **ID**: `%s`\n", rec.ID)
		if !rec.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "- **Created**: %s\n", formatTimestamp(rec.CreatedAt))
		}
		fmt.Fprintf(&sb, "- **Messages**: %d\n\n", rec.MessageCount())
	}

	for i, msg := range rec.Messages {
		label := roleLabel(msg.Role)
		if e.options.IncludeTimestamps && !msg.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, msg.CreatedAt.Local().Format("15:04:05"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if i < len(rec.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "---\n\n*Exported from ragchat on %s*\n", formatTimestamp(e.options.Now()))
	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func roleLabel(r model.Role) string {
	if r == "" {
		return "Unknown"
	}
	return r.DisplayName()
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"#", "\\#",
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"\n", " ",
	)
	return r.Replace(s)
}
