// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/params"
)

// Input commands. Everything else typed into the input is a prompt.
var commandHelp = []struct{ name, desc string }{
	{"/model ID", "select the chat model"},
	{"/embed ID", "select the embedding model"},
	{"/key", "enter the chat model API key"},
	{"/embed-key", "enter the embedding model API key"},
	{"/set NAME VALUE", "temperature, max-tokens or top-p"},
	{"/upload PATH", "index a document or image"},
	{"/new", "start a new conversation"},
	{"/quit", "exit"},
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// runCommand executes one input command.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	name, args := strings.ToLower(fields[0]), fields[1:]

	var cmd tea.Cmd
	switch name {
	case "/quit", "/q", "/exit":
		m.ctl.Stop()
		return m, tea.Quit

	case "/new":
		cmd = m.open("")

	case "/model", "/llm":
		if len(args) == 0 {
			cmd = m.showNotice(notify.Info("Usage: /model ID"))
			break
		}
		m.app.Params.SetLLM(args[0])
		cmd = m.showNotice(notify.Info("Model: " + args[0]))

	case "/embed":
		if len(args) == 0 {
			cmd = m.showNotice(notify.Info("Usage: /embed ID"))
			break
		}
		m.app.Params.SetEmbedModel(args[0])
		cmd = m.showNotice(notify.Info("Embedding model: " + args[0]))

	case "/key":
		if len(args) > 0 {
			cmd = m.setKey(secretLLM, args[0])
			break
		}
		m.beginSecret(secretLLM)

	case "/embed-key":
		if len(args) > 0 {
			cmd = m.setKey(secretEmbed, args[0])
			break
		}
		m.beginSecret(secretEmbed)

	case "/set":
		if len(args) != 2 {
			cmd = m.showNotice(notify.Info("Usage: /set temperature|max-tokens|top-p VALUE"))
			break
		}
		if err := setParam(m.app.Params, args[0], args[1]); err != nil {
			cmd = m.showNotice(notify.FromError(err))
			break
		}
		cmd = m.showNotice(notify.Info(fmt.Sprintf("%s set to %s", args[0], args[1])))

	case "/upload":
		if len(args) == 0 {
			cmd = m.showNotice(notify.Info("Usage: /upload PATH"))
			break
		}
		path := strings.Join(args, " ")
		up, ctx := m.app.Uploader, m.ctx
		cmd = func() tea.Msg {
			if _, err := up.UploadFile(ctx, path); err != nil {
				return actionDoneMsg{op: "upload", err: err, notice: noticePtr(notify.FromError(err))}
			}
			return actionDoneMsg{op: "upload", notice: noticePtr(notify.Success(notify.UploadSuccessMessage))}
		}

	case "/help", "/?":
		var parts []string
		for _, c := range commandHelp {
			parts = append(parts, c.name)
		}
		cmd = m.showNotice(notify.Info(strings.Join(parts, "  ")))

	default:
		cmd = m.showNotice(notify.Notice{
			Kind:    notify.KindValidation,
			Level:   notify.LevelError,
			Message: fmt.Sprintf("Unknown command %s. Type /help.", name),
		})
	}
	return m, cmd
}

func setParam(store *params.Store, name, value string) error {
	switch strings.ToLower(name) {
	case "temperature", "temp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &params.ValidationError{Field: "temperature", Message: "Temperature must be a number."}
		}
		return store.SetTemperature(f)
	case "max-tokens", "max_tokens", "maxtokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &params.ValidationError{Field: "maxTokens", Message: "Max tokens must be an integer."}
		}
		return store.SetMaxTokens(n)
	case "top-p", "top_p", "topp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &params.ValidationError{Field: "topP", Message: "Top P must be a number."}
		}
		return store.SetTopP(f)
	}
	return &params.ValidationError{Field: name, Message: fmt.Sprintf("Unknown parameter %s.", name)}
}

// =============================================================================
// API KEY ENTRY
// =============================================================================

func (m *Model) beginSecret(target secretTarget) {
	m.secret = target
	m.input.Reset()
	m.input.EchoMode = textinput.EchoPassword
	m.input.EchoCharacter = '*'
	if target == secretEmbed {
		m.input.Placeholder = "Embedding model API key (esc to cancel)"
	} else {
		m.input.Placeholder = "Chat model API key (esc to cancel)"
	}
	m.setFocus(focusInput)
}

func (m *Model) endSecret() {
	m.secret = secretNone
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = placeholder
}

func (m *Model) setKey(target secretTarget, key string) tea.Cmd {
	key = strings.TrimSpace(key)
	if key == "" {
		return m.showNotice(notify.Info("No key entered."))
	}
	if target == secretEmbed {
		m.app.Params.SetEmbedAPIKey(key)
	} else {
		m.app.Params.SetLLMAPIKey(key)
	}
	return m.showNotice(notify.Info("API key set for this session."))
}
