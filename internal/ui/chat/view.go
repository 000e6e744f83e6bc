// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragchat/internal/session"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/ui/styles"
	"github.com/jeranaias/ragchat/internal/util"
)

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	columns := []string{}
	if m.showSidebar {
		columns = append(columns, m.renderSidebar())
	}
	columns = append(columns, m.theme.Transcript.Render(m.viewport.View()))
	if m.showParams {
		columns = append(columns, m.renderParams())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := "New chat"
	if len(m.messages) > 0 {
		title = util.TruncateWidth(util.SingleLine(m.messages[0].Content), 40)
	}
	left := m.theme.HeaderBrand.Render("ragchat") + "  " + m.theme.HeaderTitle.Render(title)
	right := m.theme.HeaderMeta.Render(m.ctl.Path())
	if m.state == session.StateStreaming {
		right = m.theme.StreamingLabel.Render(m.spinner.View()+" answering") + "  " + right
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	var sb strings.Builder
	title := "Chats"
	if m.focus == focusSidebar {
		title = "Chats *"
	}
	sb.WriteString(m.theme.SidebarTitle.Render(title))
	sb.WriteString("\n")

	switch {
	case !m.chatsLoaded:
		sb.WriteString(m.theme.SessionMeta.Render("Loading..."))
	case len(m.chats) == 0:
		sb.WriteString(m.theme.SessionMeta.Render("No chats yet."))
	default:
		rows := m.viewport.Height
		start := 0
		if m.cursor >= rows && rows > 0 {
			start = m.cursor - rows + 1
		}
		activeID := m.ctl.ID()
		for i := start; i < len(m.chats) && i < start+rows; i++ {
			sb.WriteString(m.renderChatRow(i, m.chats[i], activeID))
			sb.WriteString("\n")
		}
	}
	return m.theme.Sidebar.Height(m.viewport.Height).Render(sb.String())
}

func (m Model) renderChatRow(i int, rec storage.ChatRecord, activeID string) string {
	title := rec.Title
	if title == "" {
		title = rec.ID
	}
	line := util.TruncateWidth(util.SingleLine(title), styles.SidebarWidth-4)
	switch {
	case m.focus == focusSidebar && i == m.cursor:
		return m.theme.SessionItemSelected.Render("> " + line)
	case rec.ID == activeID:
		return m.theme.SessionItemActive.Render("* " + line)
	default:
		return m.theme.SessionItem.Render("  " + line)
	}
}

// =============================================================================
// PARAMETERS PANEL
// =============================================================================

func (m Model) renderParams() string {
	v := m.app.Params.Snapshot()
	catalog := m.app.Params.Catalog()

	modelLine := func(id string) string {
		switch {
		case id == "":
			return m.theme.SessionMeta.Render("(none)")
		case catalog.IsHosted(id):
			return m.theme.ParamHosted.Render(id)
		case catalog.IsLocal(id):
			return m.theme.ParamLocal.Render(id)
		default:
			return m.theme.ParamValue.Render(id)
		}
	}
	keyLine := func(key string) string {
		if key == "" {
			return m.theme.SessionMeta.Render("not set")
		}
		return m.theme.ParamValue.Render("set")
	}
	row := func(label, value string) string {
		return m.theme.ParamLabel.Render(label) + value
	}

	lines := []string{
		m.theme.ParamsTitle.Render("Parameters"),
		row("Model", modelLine(v.LLM)),
		row("API key", keyLine(v.LLMAPIKey)),
		row("Embedding", modelLine(v.EmbedModel)),
		row("Embed key", keyLine(v.EmbedAPIKey)),
		"",
		row("Temperature", m.theme.ParamValue.Render(fmt.Sprintf("%.2f", v.Temperature))),
		row("Max tokens", m.theme.ParamValue.Render(fmt.Sprintf("%d", v.MaxTokens))),
		row("Top P", m.theme.ParamValue.Render(fmt.Sprintf("%.2f", v.TopP))),
		"",
		m.theme.SessionMeta.Render("/model /embed /key /set"),
		m.theme.SessionMeta.Render("/upload PATH"),
	}
	return m.theme.ParamsPanel.Height(m.viewport.Height).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatus() string {
	var content string
	switch {
	case m.confirm != nil:
		content = m.theme.Confirm.Render(m.confirm.prompt)
	case m.notice != nil:
		content = m.theme.Notice(*m.notice)
	case m.selected >= 0 && m.selected < len(m.messages):
		msg := m.messages[m.selected]
		content = fmt.Sprintf("[%d/%d] %s: %s  %s", m.selected+1, len(m.messages),
			msg.Role.DisplayName(), msg.Preview(40), m.theme.Shortcut("C-x", "delete"))
	default:
		content = m.renderHelp()
	}
	return m.theme.StatusBar.Width(m.width).Render(content)
}

func (m Model) renderHelp() string {
	bindings := m.keys.InputHelp()
	switch {
	case m.state == session.StateStreaming:
		bindings = m.keys.StreamingHelp()
	case m.focus == focusSidebar:
		bindings = m.keys.SidebarHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, m.theme.Shortcut(b.Help().Key, b.Help().Desc))
	}
	return strings.Join(parts, "  ")
}
