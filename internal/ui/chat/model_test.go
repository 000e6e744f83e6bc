// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/session"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/uistate"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// =============================================================================
// HELPERS
// =============================================================================

func plainAnswer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fl := w.(http.Flusher)
	for _, part := range []string{"Retrieval ", "augmented ", "answer"} {
		_, _ = io.WriteString(w, part)
		fl.Flush()
	}
}

func newTestApp(t *testing.T, handler http.HandlerFunc) *app.App {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rag", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Endpoints.ChatURL = srv.URL + "/api/rag"
	cfg.Endpoints.IndexURL = srv.URL + "/api/indexing"
	cfg.Endpoints.ImageURL = srv.URL + "/api/image"
	cfg.Params.LLM = "ollama-llama3.1"
	cfg.UI.MarkdownStyle = "plain"

	a, err := app.NewWithBackend(context.Background(), cfg, storage.NewMemoryBackend(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestModel(t *testing.T, a *app.App, chatID string) Model {
	t.Helper()
	m, err := New(context.Background(), a, Options{ChatID: chatID})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return run(t, m, m.Init())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends msg and runs the command it returns.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return run(t, next.(Model), cmd)
}

// run executes cmd, expanding batches, and feeds the resulting messages back
// into m. Timers and other commands that do not return promptly are dropped.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		m = update(t, m, msg)
	}
	return m
}

// cmdTimeout is longer than any local round trip and shorter than the
// notice and blink timers.
const cmdTimeout = 400 * time.Millisecond

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(cmdTimeout):
		return nil
	}

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}

	results := make([][]tea.Msg, len(batch))
	var wg sync.WaitGroup
	for i, c := range batch {
		wg.Add(1)
		go func(i int, c tea.Cmd) {
			defer wg.Done()
			results[i] = collect(c)
		}(i, c)
	}
	wg.Wait()

	var out []tea.Msg
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func saveChat(t *testing.T, a *app.App, id, first string) {
	t.Helper()
	msgs := []model.Message{model.NewUserMessage(first), {ID: "a-" + id, Role: model.RoleAssistant, Content: "stored answer"}}
	require.NoError(t, a.Chats.Save(context.Background(), id, msgs))
}

// =============================================================================
// TESTS
// =============================================================================

func TestInitLoadsSidebar(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "aaaaaaa", "first question")

	m := newTestModel(t, a, "")

	assert.True(t, m.chatsLoaded)
	require.Len(t, m.chats, 1)
	assert.Equal(t, "first question", m.chats[0].Title)
	assert.True(t, m.showSidebar, "sidebar defaults to open")
	assert.True(t, m.showParams, "parameters panel defaults to open")
	assert.Equal(t, session.StateIdle, m.state)
}

func TestOpenExistingConversation(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "bbbbbbb", "saved prompt")

	m := newTestModel(t, a, "bbbbbbb")

	require.Len(t, m.messages, 2)
	assert.True(t, m.ctl.Existing())
	assert.Contains(t, m.viewport.View(), "stored answer")
}

func TestSubmitStreamsAndSaves(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	m := newTestModel(t, a, "")

	m = typeText(t, m, "what is RAG?")

	require.Len(t, m.messages, 2)
	assert.Equal(t, "Retrieval augmented answer", m.messages[1].Content)
	assert.Equal(t, session.StateIdle, m.state)
	assert.Empty(t, m.input.Value(), "input is cleared after sending")

	rec, found, err := a.Chats.Load(context.Background(), m.ctl.ID())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "what is RAG?", rec.Title)

	require.Len(t, m.chats, 1, "the first save refreshes the sidebar")
	assert.Contains(t, m.View(), "what is RAG?")
}

func TestSubmitValidationKeepsInput(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	a.Params.SetLLM("")
	m := newTestModel(t, a, "")

	m = typeText(t, m, "hello")

	assert.Empty(t, m.messages)
	assert.Equal(t, "hello", m.input.Value())
	require.NotNil(t, m.notice)
	assert.Contains(t, m.notice.Message, "No model is selected")
}

func TestHostedModelNeedsKey(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	a.Params.SetLLM("gpt-4o")
	m := newTestModel(t, a, "")

	m = typeText(t, m, "hello")
	require.NotNil(t, m.notice)
	assert.Contains(t, m.notice.Message, "No API key is provided")

	m = typeText(t, m, "/key sk-test")
	assert.Equal(t, "sk-test", a.Params.Snapshot().LLMAPIKey)

	m = typeText(t, m, "hello")
	assert.Len(t, m.messages, 2)
}

func TestStopWhileStreaming(t *testing.T) {
	started := make(chan struct{})
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	})
	m := newTestModel(t, a, "")

	m.input.SetValue("long question")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-started
	require.Eventually(t, func() bool {
		msgs := m.ctl.Messages()
		return len(msgs) == 2 && msgs[1].Content == "partial"
	}, 2*time.Second, 10*time.Millisecond)

	m = update(t, m, wakeMsg{})
	assert.Equal(t, session.StateStreaming, m.state)
	assert.Contains(t, m.View(), "answering")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, session.StateIdle, m.state)

	select {
	case msg := <-done:
		m = update(t, m, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return after stop")
	}
	require.Len(t, m.messages, 2)
	assert.Equal(t, "partial", m.messages[1].Content)

	_, found, err := a.Chats.Load(context.Background(), m.ctl.ID())
	require.NoError(t, err)
	assert.False(t, found, "a stopped response is not persisted")
}

func TestToggleSidebarPersists(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	m := newTestModel(t, a, "")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.False(t, m.showSidebar)
	assert.False(t, a.Flags.Get(context.Background(), uistate.Sidebar))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, m.showParams)
	assert.NotContains(t, m.View(), "Parameters")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.True(t, m.showSidebar)
}

func TestOpenFromSidebar(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "ccccccc", "older")
	m := newTestModel(t, a, "")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusSidebar, m.focus)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, focusInput, m.focus)
	assert.Equal(t, "ccccccc", m.ctl.ID())
	assert.Len(t, m.messages, 2)
}

func TestDeleteChatNeedsConfirmation(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "ddddddd", "to delete")
	m := newTestModel(t, a, "")
	ctx := context.Background()

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("d"))
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), "Delete \"to delete\"?")

	m = press(t, m, runes("n"))
	assert.Nil(t, m.confirm)
	_, found, _ := a.Chats.Load(ctx, "ddddddd")
	assert.True(t, found, "cancelled delete keeps the record")

	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	_, found, _ = a.Chats.Load(ctx, "ddddddd")
	assert.False(t, found)
	assert.Empty(t, m.chats)
	require.NotNil(t, m.notice)
	assert.Equal(t, "Chat deleted.", m.notice.Message)
}

func TestDeleteActiveChatStartsNewOne(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "eeeeeee", "active")
	m := newTestModel(t, a, "eeeeeee")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))

	assert.NotEqual(t, "eeeeeee", m.ctl.ID())
	assert.Empty(t, m.messages)
	assert.Equal(t, session.StateIdle, m.state)
}

func TestClearChats(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	saveChat(t, a, "fffffff", "one")
	saveChat(t, a, "ggggggg", "two")
	m := newTestModel(t, a, "")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, runes("D"))
	require.NotNil(t, m.confirm)
	m = press(t, m, runes("y"))

	records, err := a.Chats.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, m.chats)
	require.NotNil(t, m.notice)
	assert.Equal(t, "All chats deleted.", m.notice.Message)
}

func TestDeleteSelectedMessage(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	m := newTestModel(t, a, "")
	m = typeText(t, m, "question")
	require.Len(t, m.messages, 2)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "[2/2]")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.Len(t, m.messages, 1)
	assert.Equal(t, model.RoleUser, m.messages[0].Role)

	rec, found, err := a.Chats.Load(context.Background(), m.ctl.ID())
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, rec.Messages, 1)
}

func TestReload(t *testing.T) {
	calls := 0
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, strings.Repeat("x", calls))
	})
	m := newTestModel(t, a, "")
	m = typeText(t, m, "question")
	require.Len(t, m.messages, 2)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Len(t, m.messages, 2)
	assert.Equal(t, "xx", m.messages[1].Content)
}

func TestParamCommands(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	m := newTestModel(t, a, "")

	m = typeText(t, m, "/set temperature 0.5")
	assert.Equal(t, 0.5, a.Params.Snapshot().Temperature)

	m = typeText(t, m, "/set top-p 9")
	require.NotNil(t, m.notice)
	assert.Equal(t, 1.0, a.Params.Snapshot().TopP)

	m = typeText(t, m, "/embed mistral-embed")
	assert.Equal(t, "mistral-embed", a.Params.Snapshot().EmbedModel)

	m = typeText(t, m, "/embed-key")
	assert.Equal(t, secretEmbed, m.secret)
	assert.Equal(t, textinput.EchoPassword, m.input.EchoMode)
	m = typeText(t, m, "emb-key")
	assert.Equal(t, secretNone, m.secret)
	assert.Equal(t, "emb-key", a.Params.Snapshot().EmbedAPIKey)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Empty(t, a.Params.Snapshot().EmbedAPIKey)
	require.NotNil(t, m.notice)
	assert.Equal(t, "API keys removed.", m.notice.Message)

	m = typeText(t, m, "/bogus")
	require.NotNil(t, m.notice)
	assert.Contains(t, m.notice.Message, "Unknown command")
	assert.Empty(t, m.messages, "commands are never sent as prompts")
}

func TestViewLayout(t *testing.T) {
	a := newTestApp(t, plainAnswer)
	m := newTestModel(t, a, "")
	view := m.View()

	for _, want := range []string{"ragchat", "Chats", "Parameters", "ollama-llama3.1", "No messages yet"} {
		assert.Contains(t, view, want)
	}
}
