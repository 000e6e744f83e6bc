// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Submit        key.Binding
	Stop          key.Binding
	Reload        key.Binding
	NewChat       key.Binding
	PrevMessage   key.Binding
	NextMessage   key.Binding
	DeleteMessage key.Binding
	ToggleSidebar key.Binding
	ToggleParams  key.Binding
	SwitchFocus   key.Binding
	RemoveKeys    key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Quit          key.Binding

	// Sidebar focus only.
	Up         key.Binding
	Down       key.Binding
	Open       key.Binding
	DeleteChat key.Binding
	ClearChats key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Stop: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "regenerate"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		PrevMessage: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+up"),
			key.WithHelp("M-up", "select previous message"),
		),
		NextMessage: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+down"),
			key.WithHelp("M-down", "select next message"),
		),
		DeleteMessage: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete selected message"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "toggle sidebar"),
		),
		ToggleParams: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "toggle parameters"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus sidebar/input"),
		),
		RemoveKeys: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "remove API keys"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "stop/quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous chat"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next chat"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open chat"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete chat"),
		),
		ClearChats: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all chats"),
		),
	}
}

// InputHelp returns the hints shown while the input has focus.
func (k KeyMap) InputHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Reload, k.NewChat, k.SwitchFocus, k.ToggleParams}
}

// SidebarHelp returns the hints shown while the sidebar has focus.
func (k KeyMap) SidebarHelp() []key.Binding {
	return []key.Binding{k.Open, k.DeleteChat, k.ClearChats, k.SwitchFocus}
}

// StreamingHelp returns the hints shown during a stream.
func (k KeyMap) StreamingHelp() []key.Binding {
	return []key.Binding{k.Stop}
}
