// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/ragchat/internal/notify"
)

// Column widths of the side panels.
const (
	SidebarWidth     = 32
	ParamsPanelWidth = 30
)

// Theme holds the styled components of the chat screen.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// SIDEBAR (conversation list)
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionItemActive   lipgloss.Style
	SessionMeta         lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	Transcript     lipgloss.Style
	StreamingLabel lipgloss.Style

	// ==========================================================================
	// PARAMETERS PANEL
	// ==========================================================================

	ParamsPanel lipgloss.Style
	ParamsTitle lipgloss.Style
	ParamLabel  lipgloss.Style
	ParamValue  lipgloss.Style
	ParamHosted lipgloss.Style
	ParamLocal  lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// STATUS BAR AND NOTICES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Confirm      lipgloss.Style

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		Width(SidebarWidth).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)
	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)
	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SessionItemSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)
	t.SessionItemActive = lipgloss.NewStyle().
		Foreground(Cyan)
	t.SessionMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Transcript = lipgloss.NewStyle().
		Padding(0, 1)
	t.StreamingLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Italic(true)

	t.ParamsPanel = lipgloss.NewStyle().
		Width(ParamsPanelWidth).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)
	t.ParamsTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)
	t.ParamLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(12)
	t.ParamValue = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ParamHosted = lipgloss.NewStyle().
		Foreground(Amber)
	t.ParamLocal = lipgloss.NewStyle().
		Foreground(Emerald)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.Confirm = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 1)

	t.SuccessStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Cyan)
}

// Notice renders n with its level marker.
func (t *Theme) Notice(n notify.Notice) string {
	var style lipgloss.Style
	switch n.Level {
	case notify.LevelSuccess:
		style = t.SuccessStyle
	case notify.LevelWarning:
		style = t.WarningStyle
	case notify.LevelError:
		style = t.ErrorStyle
	default:
		style = t.InfoStyle
	}
	return style.Render(LevelIndicator(n.Level)) + " " + n.Message
}

// Shortcut renders a key hint such as "ctrl+n new".
func (t *Theme) Shortcut(key, desc string) string {
	return t.ShortcutKey.Render(key) + " " + t.ShortcutDesc.Render(desc)
}
