// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/session"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/ui/styles"
	"github.com/jeranaias/ragchat/internal/uistate"
)

// noticeTTL is how long a notice stays in the status bar.
const noticeTTL = 5 * time.Second

const placeholder = "Ask a question about your documents..."

// Options configures the chat screen.
type Options struct {
	// ChatID opens a saved conversation. Empty starts a new one.
	ChatID string
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// secretTarget is set while the input is collecting an API key.
type secretTarget int

const (
	secretNone secretTarget = iota
	secretLLM
	secretEmbed
)

// confirmation is a pending destructive action awaiting y/n.
type confirmation struct {
	prompt string
	run    func(m *Model) tea.Cmd
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx    context.Context
	app    *app.App
	theme  *styles.Theme
	keys   KeyMap
	bridge *bridge

	unsubscribe func()

	// Conversation
	ctl      *session.Controller
	state    session.State
	messages []model.Message
	selected int // index into messages, -1 for none

	// Sidebar
	chats       []storage.ChatRecord
	chatsLoaded bool
	cursor      int

	showSidebar bool
	showParams  bool
	focus       focusArea

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	secret    secretTarget
	confirm   *confirmation
	notice    *notify.Notice
	noticeSeq int

	width  int
	height int
	ready  bool
}

// New creates the chat screen for opts.ChatID, or a new conversation.
func New(ctx context.Context, a *app.App, opts Options) (Model, error) {
	b := newBridge()
	ctl, err := a.NewSession(opts.ChatID, b, b)
	if err != nil {
		return Model{}, err
	}
	ctl.OnChange(b.poke)

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		app:         a,
		theme:       styles.NewTheme(),
		keys:        DefaultKeyMap(),
		bridge:      b,
		unsubscribe: a.List.Subscribe(b.setList),
		ctl:         ctl,
		state:       ctl.State(),
		selected:    -1,
		showSidebar: a.Flags.Get(ctx, uistate.Sidebar),
		showParams:  a.Flags.Get(ctx, uistate.ParamsPanel),
		viewport:    viewport.New(80, 20),
		input:       ti,
		spinner:     sp,
	}
	m.input.Prompt = m.theme.InputPrompt.Render("> ")
	return m, nil
}

// Init opens the conversation and loads the sidebar.
func (m Model) Init() tea.Cmd {
	ctx, a := m.ctx, m.app
	refresh := func() tea.Msg {
		if err := a.List.Refresh(ctx); err != nil {
			n := notify.FromError(err)
			return actionDoneMsg{op: "refresh", notice: &n}
		}
		return nil
	}
	return tea.Batch(textinput.Blink, initCmd(ctx, m.ctl), refresh)
}

func initCmd(ctx context.Context, ctl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{ctl: ctl, err: ctl.Init(ctx)}
	}
}

// Run starts a full-screen program around m and blocks until it exits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go m.bridge.forward(p.Send)
	defer m.Close()

	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.ctl != nil {
		fm.ctl.Stop()
	}
	return err
}

// Close releases the list subscription and the event bridge.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.bridge.close()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case wakeMsg:
		cmd := m.sync()
		return m, cmd

	case openedMsg:
		if msg.ctl != m.ctl {
			return m, nil
		}
		cmd := m.sync()
		return m, cmd

	case actionDoneMsg:
		cmds = append(cmds, m.sync())
		if msg.err != nil && msg.notice == nil && reportable(msg.err) {
			n := notify.FromError(msg.err)
			msg.notice = &n
		}
		if msg.notice != nil {
			cmds = append(cmds, m.showNotice(*msg.notice))
		}
		return m, tea.Batch(cmds...)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != session.StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// reportable filters the errors the controller did not already notify.
func reportable(err error) bool {
	return errors.Is(err, session.ErrBusy) ||
		errors.Is(err, session.ErrNothingToReload) ||
		errors.Is(err, session.ErrMessageNotFound)
}

// sync pulls pending bridge events and the controller state into m.
func (m *Model) sync() tea.Cmd {
	p := m.bridge.drain()
	if p.hasList {
		m.chats = p.list
		m.chatsLoaded = true
		m.clampCursor()
	}
	if p.nav != "" {
		log.Debug().Str("path", p.nav).Msg("conversation saved")
	}

	wasStreaming := m.state == session.StateStreaming
	m.state = m.ctl.State()
	m.messages = m.ctl.Messages()
	if m.selected >= len(m.messages) {
		m.selected = len(m.messages) - 1
	}
	m.refreshViewport(m.state == session.StateStreaming)

	var cmds []tea.Cmd
	for _, n := range p.notices {
		cmds = append(cmds, m.showNotice(n))
	}
	if !wasStreaming && m.state == session.StateStreaming {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) showNotice(n notify.Notice) tea.Cmd {
	m.noticeSeq++
	m.notice = &n
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.chats) {
		m.cursor = len(m.chats) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		c := m.confirm
		m.confirm = nil
		var cmd tea.Cmd
		if msg.String() == "y" || msg.String() == "Y" {
			cmd = c.run(&m)
		} else {
			cmd = m.showNotice(notify.Info("Cancelled."))
		}
		return m, cmd
	}

	streaming := m.state == session.StateStreaming

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctl.Stop()
		if streaming {
			cmd := m.sync()
			return m, cmd
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		if m.secret != secretNone {
			m.endSecret()
			return m, nil
		}
		if streaming {
			m.ctl.Stop()
			cmd := m.sync()
			return m, cmd
		}
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusInput && m.showSidebar {
			m.setFocus(focusSidebar)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = m.toggleFlag(uistate.Sidebar, m.showSidebar)
		if !m.showSidebar {
			m.setFocus(focusInput)
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleParams):
		m.showParams = m.toggleFlag(uistate.ParamsPanel, m.showParams)
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		cmd := m.open("")
		return m, cmd

	case key.Matches(msg, m.keys.RemoveKeys):
		m.app.Params.RemoveAPIKeys()
		cmd := m.showNotice(notify.Success(notify.KeysRemovedMessage))
		return m, cmd

	case key.Matches(msg, m.keys.Reload):
		if streaming {
			return m, nil
		}
		return m, m.runAction("reload", m.ctl.Reload)

	case key.Matches(msg, m.keys.PrevMessage):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextMessage):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.DeleteMessage):
		if m.selected < 0 || m.selected >= len(m.messages) {
			cmd := m.showNotice(notify.Info("Select a message first (alt+up/alt+down)."))
			return m, cmd
		}
		id := m.messages[m.selected].ID
		ctl, ctx := m.ctl, m.ctx
		return m, func() tea.Msg {
			return actionDoneMsg{op: "delete-message", ctl: ctl, err: ctl.DeleteMessage(ctx, id)}
		}

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.chats)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if rec, ok := m.cursorChat(); ok {
			m.setFocus(focusInput)
			cmd := m.open(rec.ID)
			return m, cmd
		}
	case key.Matches(msg, m.keys.DeleteChat):
		if rec, ok := m.cursorChat(); ok {
			m.confirm = &confirmation{
				prompt: fmt.Sprintf("Delete %q? (y/n)", rec.Title),
				run:    func(m *Model) tea.Cmd { return m.deleteChat(rec) },
			}
		}
	case key.Matches(msg, m.keys.ClearChats):
		if len(m.chats) > 0 {
			m.confirm = &confirmation{
				prompt: fmt.Sprintf("Delete all %d chats? (y/n)", len(m.chats)),
				run:    func(m *Model) tea.Cmd { return m.clearChats() },
			}
		}
	}
	return m, nil
}

func (m Model) cursorChat() (storage.ChatRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.chats) {
		return storage.ChatRecord{}, false
	}
	return m.chats[m.cursor], true
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) toggleFlag(flag uistate.Flag, cur bool) bool {
	v, err := m.app.Flags.Toggle(m.ctx, flag)
	if err != nil {
		log.Warn().Err(err).Str("flag", string(flag)).Msg("failed to persist panel state")
		return !cur
	}
	return v
}

func (m *Model) moveSelection(delta int) {
	if len(m.messages) == 0 {
		m.selected = -1
		return
	}
	switch {
	case m.selected < 0 && delta < 0:
		m.selected = len(m.messages) - 1
	case m.selected < 0:
		m.selected = 0
	default:
		m.selected += delta
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.messages) {
		m.selected = -1
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if m.secret != secretNone {
		target := m.secret
		m.endSecret()
		cmd := m.setKey(target, text)
		return m, cmd
	}
	if isCommand(text) {
		m.input.Reset()
		return m.runCommand(text)
	}
	if m.state == session.StateStreaming {
		return m, nil
	}
	if err := m.app.Params.ValidateChat(); err == nil && text != "" {
		m.input.Reset()
	}
	m.selected = -1
	return m, m.runAction("submit", func(ctx context.Context) error {
		return m.ctl.Submit(ctx, text)
	})
}

// runAction runs a blocking controller action off the update loop.
func (m *Model) runAction(op string, fn func(context.Context) error) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return actionDoneMsg{op: op, ctl: ctl, err: fn(ctx)}
	}
}

// switchTo replaces the current conversation with id, or a new one. The new
// controller still needs Init.
func (m *Model) switchTo(id string) (*session.Controller, error) {
	ctl, err := m.app.NewSession(id, m.bridge, m.bridge)
	if err != nil {
		return nil, err
	}
	m.ctl.Stop()
	ctl.OnChange(m.bridge.poke)
	m.ctl = ctl
	m.state = ctl.State()
	m.messages = nil
	m.selected = -1
	m.refreshViewport(true)
	return ctl, nil
}

func (m *Model) open(id string) tea.Cmd {
	ctl, err := m.switchTo(id)
	if err != nil {
		return m.showNotice(notify.FromError(err))
	}
	return initCmd(m.ctx, ctl)
}

// deleteChat removes rec. Deleting the open conversation starts a new one.
func (m *Model) deleteChat(rec storage.ChatRecord) tea.Cmd {
	var fresh *session.Controller
	if rec.ID == m.ctl.ID() {
		ctl, err := m.switchTo("")
		if err != nil {
			return m.showNotice(notify.FromError(err))
		}
		fresh = ctl
	}
	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		if fresh != nil {
			_ = fresh.Init(ctx)
		}
		return listAction(ctx, a, "delete-chat", notify.ChatDeletedMessage, func() error {
			return a.Chats.Remove(ctx, rec.ID, rec.Path)
		})
	}
}

// clearChats removes every stored conversation and starts a new one.
func (m *Model) clearChats() tea.Cmd {
	fresh, err := m.switchTo("")
	if err != nil {
		return m.showNotice(notify.FromError(err))
	}
	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		_ = fresh.Init(ctx)
		return listAction(ctx, a, "clear-chats", notify.ChatsClearedMessage, func() error {
			return a.Chats.Clear(ctx)
		})
	}
}

// listAction runs a store mutation followed by a list refresh.
func listAction(ctx context.Context, a *app.App, op, success string, fn func() error) tea.Msg {
	err := fn()
	if err == nil {
		err = a.List.Refresh(ctx)
	}
	if err != nil {
		return actionDoneMsg{op: op, err: err, notice: noticePtr(notify.FromError(err))}
	}
	return actionDoneMsg{op: op, notice: noticePtr(notify.Success(success))}
}

func noticePtr(n notify.Notice) *notify.Notice {
	return &n
}

// =============================================================================
// LAYOUT
// =============================================================================

// chrome is the number of rows used by header, input and status bar.
const chrome = 5

func (m *Model) transcriptWidth() int {
	w := m.width
	if m.showSidebar {
		w -= styles.SidebarWidth + 1
	}
	if m.showParams {
		w -= styles.ParamsPanelWidth + 1
	}
	// Transcript padding.
	w -= 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) layout() {
	if !m.ready {
		return
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = h
	m.input.Width = m.transcriptWidth() - 4
	m.refreshViewport(false)
}

func (m *Model) refreshViewport(follow bool) {
	atBottom := m.viewport.AtBottom()
	var content string
	if len(m.messages) == 0 {
		content = m.theme.HeaderMeta.Render("No messages yet. Ask a question about your indexed documents.")
	} else {
		content = m.app.Render.Render(m.ctl.Path(), m.viewport.Width, m.messages)
	}
	m.viewport.SetContent(content)
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}
