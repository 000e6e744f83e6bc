// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for ragchat line-mode output.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/ui/styles"
)

// ConfigureColors sets the lipgloss profile from TTY detection and flags.
// Call once after parsing arguments.
func ConfigureColors(noColor bool) {
	if noColor {
		ForceColorsEnabled(false)
	}
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(14)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// PromptStyle colors the chat prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// RoleStyle labels transcript turns.
	RoleStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// RenderSeparator renders a horizontal separator line of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// RenderNotice styles a notice by level.
func RenderNotice(n notify.Notice) string {
	switch n.Level {
	case notify.LevelSuccess:
		return SuccessStyle.Render("[OK] ") + n.Message
	case notify.LevelWarning:
		return WarningStyle.Render("[WARN] ") + n.Message
	case notify.LevelError:
		return ErrorStyle.Render("[ERROR] ") + n.Message
	default:
		return DimStyle.Render(n.Message)
	}
}
