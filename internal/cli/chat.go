// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat for ragchat.
//
// Command: chat
// Short:   Chat with the backend without the full-screen UI
//
// Examples:
//   ragchat chat                       New conversation
//   ragchat chat --chat abc1234        Continue a saved conversation
//   ragchat chat --model gpt-4o        Use a specific model
//
// Ctrl+C stops the current answer; Ctrl+D or /quit exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/session"
	"github.com/jeranaias/ragchat/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor that keeps history in historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	c := &ChatCLI{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	// API keys never enter the history file.
	if t := strings.TrimSpace(input); t != "" && !strings.HasPrefix(t, "/key") && !strings.HasPrefix(t, "/embed-key") {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// ReadSecret reads a line without echo.
func (c *ChatCLI) ReadSecret(prompt string) (string, error) {
	return c.line.PasswordPrompt(prompt)
}

// SaveHistory persists history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

var chatCommands = []string{
	"/help", "/new", "/open", "/history", "/reload", "/delete", "/model", "/key",
	"/embed", "/embed-key", "/upload", "/params", "/set", "/forget-keys", "/quit",
}

func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range chatCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// REPL
// =============================================================================

// HandleChat runs the line-mode chat until the user quits.
func HandleChat(ctx context.Context, a *app.App, args Args, s Streams) error {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	editor := NewChatCLI(filepath.Join(dir, "chat_history"))
	defer editor.Close()

	r := newREPL(a, s.Out, s.Err)
	r.secret = editor.ReadSecret
	if err := r.open(ctx, args.ChatID); err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Fprintln(s.Out, TitleStyle.Render("ragchat")+" "+DimStyle.Render(a.Config.Endpoints.ChatURL))
		fmt.Fprintln(s.Out, DimStyle.Render(a.Params.Snapshot().String()))
		fmt.Fprintln(s.Out, DimStyle.Render("Type /help for commands, Ctrl+D to exit."))
	}

	for {
		line, err := editor.ReadInput(PromptStyle.Render("> "))
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.Out)
			return nil
		case err != nil:
			return err
		}

		quit, err := r.handleLine(ctx, line)
		if err != nil {
			fmt.Fprintln(s.Err, ErrorStyle.Render("Error: ")+err.Error())
		}
		if quit {
			return nil
		}
	}
}

// repl holds one line-mode chat. Streaming output is printed from the
// controller's change callback.
type repl struct {
	a      *app.App
	out    io.Writer
	errOut io.Writer

	// secret reads a hidden value; nil when no terminal is attached.
	secret func(prompt string) (string, error)

	ctl *session.Controller

	mu        sync.Mutex
	streaming bool
	skipID    string
	curID     string
	printed   int
}

func newREPL(a *app.App, out, errOut io.Writer) *repl {
	return &repl{a: a, out: out, errOut: errOut}
}

func (r *repl) notify(n notify.Notice) {
	fmt.Fprintln(r.errOut, RenderNotice(n))
}

// open switches to conversation id, or a new one when id is empty.
func (r *repl) open(ctx context.Context, id string) error {
	nav := session.NavigatorFunc(func(path string) {
		fmt.Fprintln(r.out, DimStyle.Render("Saved as "+path))
	})
	ctl, err := r.a.NewSession(id, notify.Func(r.notify), nav)
	if err != nil {
		return err
	}
	ctl.OnChange(func() { r.onChange(ctl) })
	if err := ctl.Init(ctx); err != nil {
		return err
	}
	if id != "" && !ctl.Existing() {
		return &NotFoundError{Resource: "conversation", ID: id}
	}
	r.printTranscript(ctl.Messages())

	r.mu.Lock()
	r.ctl = ctl
	r.skipID, r.curID, r.printed = "", "", 0
	r.mu.Unlock()
	return nil
}

func (r *repl) printTranscript(msgs []model.Message) {
	for i, m := range msgs {
		fmt.Fprintf(r.out, "%s %s\n", RoleStyle.Render(fmt.Sprintf("[%d] %s:", i+1, m.Role.DisplayName())), m.Content)
	}
}

// beginStream marks where new output starts.
func (r *repl) beginStream() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streaming = true
	r.skipID, r.curID, r.printed = "", "", 0
	if msgs := r.ctl.Messages(); len(msgs) > 0 && msgs[len(msgs)-1].Role == model.RoleAssistant {
		r.skipID = msgs[len(msgs)-1].ID
	}
}

func (r *repl) endStream() {
	r.mu.Lock()
	r.streaming = false
	r.mu.Unlock()
}

// onChange prints the unseen tail of the streaming answer of ctl.
func (r *repl) onChange(ctl *session.Controller) {
	msgs := ctl.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ctl != r.ctl || !r.streaming || last.ID == r.skipID {
		return
	}
	if last.ID != r.curID {
		r.curID, r.printed = last.ID, 0
	}
	if len(last.Content) > r.printed {
		fmt.Fprint(r.out, last.Content[r.printed:])
		r.printed = len(last.Content)
	}
}

// stream runs fn with Ctrl+C mapped to Stop.
func (r *repl) stream(ctx context.Context, fn func(context.Context) error) error {
	r.beginStream()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-sig:
			r.ctl.Stop()
		case <-done:
		}
	}()

	err := fn(ctx)
	close(done)
	signal.Stop(sig)
	r.endStream()
	fmt.Fprintln(r.out)
	return err
}

// handleLine runs one input line. quit is true when the user asked to exit.
func (r *repl) handleLine(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		err := r.stream(ctx, func(ctx context.Context) error {
			return r.ctl.Submit(ctx, line)
		})
		return false, unreported(err)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h", "/?":
		r.printHelp()

	case "/new":
		r.ctl.Stop()
		return false, r.open(ctx, "")

	case "/open":
		if rest == "" {
			return false, &UsageError{Command: "/open", Reason: "missing conversation id"}
		}
		r.ctl.Stop()
		return false, r.open(ctx, rest)

	case "/history":
		return false, historyList(ctx, r.a, false, Streams{Out: r.out, Err: r.errOut})

	case "/reload", "/r":
		err := r.stream(ctx, r.ctl.Reload)
		return false, unreported(err)

	case "/delete":
		n, convErr := strconv.Atoi(rest)
		msgs := r.ctl.Messages()
		if convErr != nil || n < 1 || n > len(msgs) {
			return false, &UsageError{Command: "/delete", Reason: fmt.Sprintf("expected a message number between 1 and %d", len(msgs))}
		}
		return false, r.ctl.DeleteMessage(ctx, msgs[n-1].ID)

	case "/show":
		r.printTranscript(r.ctl.Messages())

	case "/model":
		if rest == "" {
			r.printModels(model.KindLLM, r.a.Params.Snapshot().LLM)
			return false, nil
		}
		r.a.Params.SetLLM(rest)
		fmt.Fprintln(r.out, DimStyle.Render("Model: "+rest))

	case "/embed":
		if rest == "" {
			r.printModels(model.KindEmbed, r.a.Params.Snapshot().EmbedModel)
			return false, nil
		}
		r.a.Params.SetEmbedModel(rest)
		fmt.Fprintln(r.out, DimStyle.Render("Embedding model: "+rest))

	case "/key", "/embed-key":
		key, err := r.readKey(rest)
		if err != nil {
			return false, err
		}
		if cmd == "/key" {
			r.a.Params.SetLLMAPIKey(key)
		} else {
			r.a.Params.SetEmbedAPIKey(key)
		}
		fmt.Fprintln(r.out, DimStyle.Render("API key set for this session."))

	case "/forget-keys":
		r.a.Params.RemoveAPIKeys()
		r.notify(notify.Success(notify.KeysRemovedMessage))

	case "/params":
		fmt.Fprintln(r.out, r.a.Params.Snapshot().String())

	case "/set":
		return false, r.setParam(rest)

	case "/upload":
		if rest == "" {
			return false, &UsageError{Command: "/upload", Reason: "missing file"}
		}
		if _, err := r.a.Uploader.UploadFile(ctx, rest); err != nil {
			r.notify(notify.FromError(err))
			return false, nil
		}
		r.notify(notify.Success(notify.UploadSuccessMessage))

	default:
		return false, &UsageError{Command: cmd, Reason: "unknown command; try /help"}
	}
	return false, nil
}

// unreported returns err when the controller did not already show it as a
// notice.
func unreported(err error) error {
	if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNothingToReload) {
		return err
	}
	return nil
}

func (r *repl) readKey(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if r.secret == nil {
		return "", &UsageError{Command: "/key", Reason: "missing key"}
	}
	key, err := r.secret("API key: ")
	if err != nil {
		return "", err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &UsageError{Command: "/key", Reason: "empty key"}
	}
	return key, nil
}

func (r *repl) setParam(rest string) error {
	name, value, ok := strings.Cut(rest, " ")
	if !ok {
		return &UsageError{Command: "/set", Reason: "usage: /set temperature|max-tokens|top-p VALUE"}
	}
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case "temperature", "temp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &UsageError{Command: "/set", Reason: "temperature must be a number"}
		}
		return r.a.Params.SetTemperature(f)
	case "max-tokens", "max_tokens", "maxtokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &UsageError{Command: "/set", Reason: "max tokens must be an integer"}
		}
		return r.a.Params.SetMaxTokens(n)
	case "top-p", "top_p", "topp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &UsageError{Command: "/set", Reason: "top-p must be a number"}
		}
		return r.a.Params.SetTopP(f)
	default:
		return &UsageError{Command: "/set", Reason: fmt.Sprintf("unknown parameter %q", name)}
	}
}

func (r *repl) printModels(kind model.Kind, current string) {
	hosted, local := r.a.Params.Catalog().Models(kind)
	print := func(title string, models []model.ModelInfo) {
		if len(models) == 0 {
			return
		}
		fmt.Fprintln(r.out, TitleStyle.Render(title))
		for _, m := range models {
			marker := "  "
			if m.ID == current {
				marker = "* "
			}
			fmt.Fprintf(r.out, "%s%s %s\n", marker, util.PadWidth(m.ID, 28), DimStyle.Render(m.Name))
		}
	}
	print("Hosted (API key required)", hosted)
	print("Local", local)
}

func (r *repl) printHelp() {
	lines := [][2]string{
		{"/new", "Start a new conversation"},
		{"/open ID", "Open a saved conversation"},
		{"/history", "List saved conversations"},
		{"/show", "Print this conversation"},
		{"/reload", "Regenerate the last answer"},
		{"/delete N", "Delete message N"},
		{"/model [ID]", "Show or select the chat model"},
		{"/key [KEY]", "Set the chat model API key"},
		{"/embed [ID]", "Show or select the embedding model"},
		{"/embed-key [KEY]", "Set the embedding model API key"},
		{"/upload FILE", "Upload a document or image"},
		{"/params", "Show generation parameters"},
		{"/set NAME VALUE", "Set temperature, max-tokens or top-p"},
		{"/forget-keys", "Remove all API keys"},
		{"/quit", "Exit"},
	}
	for _, l := range lines {
		fmt.Fprintf(r.out, "  %s %s\n", util.PadWidth(l[0], 18), DimStyle.Render(l[1]))
	}
}
