// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/upload"
)

func init() {
	ForceColorsEnabled(false)
	ConfigureColors(true)
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"list"},
			wantSub: "list",
		},
		{
			name:    "flag with value",
			args:    []string{"upload", "--embed", "mistral-embed"},
			wantSub: "upload",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("embed") != "mistral-embed" {
					t.Errorf("Flag(embed) = %q", p.Flag("embed"))
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"show", "--format=md"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "md" {
					t.Errorf("Flag(format) = %q", p.Flag("format"))
				}
			},
		},
		{
			name:    "declared boolean does not consume the next argument",
			args:    []string{"delete", "--confirm", "abc1234"},
			bools:   []string{"confirm"},
			wantSub: "delete",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
				if p.Positional(1) != "abc1234" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
			},
		},
		{
			name:    "explicit boolean value",
			args:    []string{"clear", "--confirm=false"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be false")
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"upload", "--", "-weird.txt"},
			wantSub: "upload",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "-weird.txt" {
					t.Errorf("Positional(1) = %q", p.Positional(1))
				}
			},
		},
		{
			name:    "short flag alias",
			args:    []string{"-e", "voyage-3"},
			wantSub: "",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("embed", "e") != "voyage-3" {
					t.Errorf("Flag(embed, e) = %q", p.Flag("embed", "e"))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_Positional(t *testing.T) {
	p := NewArgParser([]string{"show", "a", "b"})
	if p.PositionalCount() != 3 {
		t.Errorf("PositionalCount() = %d", p.PositionalCount())
	}
	if got := strings.Join(p.PositionalFrom(1), " "); got != "a b" {
		t.Errorf("PositionalFrom(1) = %q", got)
	}
	if p.Positional(9) != "" || len(p.PositionalFrom(9)) != 0 {
		t.Error("out of range positional should be empty")
	}
	if p.FlagOrDefault("missing", "x") != "x" {
		t.Error("FlagOrDefault should fall back")
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{argv: nil, wantCmd: CmdTUI},
		{argv: []string{"tui", "--chat", "abc1234"}, wantCmd: CmdTUI, check: func(t *testing.T, a Args) {
			if a.ChatID != "abc1234" {
				t.Errorf("ChatID = %q", a.ChatID)
			}
		}},
		{argv: []string{"--model=gpt-4o", "chat"}, wantCmd: CmdChat, check: func(t *testing.T, a Args) {
			if a.Model != "gpt-4o" {
				t.Errorf("Model = %q", a.Model)
			}
		}},
		{argv: []string{"history", "show", "abc1234", "--json"}, wantCmd: CmdHistory, check: func(t *testing.T, a Args) {
			if !a.JSON || a.Subcommand != "show" {
				t.Errorf("Args = %+v", a)
			}
			if len(a.Raw) != 2 || a.Raw[1] != "abc1234" {
				t.Errorf("Raw = %v", a.Raw)
			}
		}},
		{argv: []string{"index", "notes.md"}, wantCmd: CmdUpload},
		{argv: []string{"--config", "/tmp/c.toml", "config", "path"}, wantCmd: CmdConfig, check: func(t *testing.T, a Args) {
			if a.ConfigPath != "/tmp/c.toml" {
				t.Errorf("ConfigPath = %q", a.ConfigPath)
			}
		}},
		{argv: []string{"--storage", "sqlite", "-q", "history"}, wantCmd: CmdHistory, check: func(t *testing.T, a Args) {
			if a.Storage != "sqlite" || !a.Quiet {
				t.Errorf("Args = %+v", a)
			}
		}},
		{argv: []string{"--version"}, wantCmd: CmdVersion},
		{argv: []string{"-h"}, wantCmd: CmdHelp},
		{argv: []string{"frobnicate"}, wantCmd: CmdHelp, check: func(t *testing.T, a Args) {
			if a.Unknown != "frobnicate" {
				t.Errorf("Unknown = %q", a.Unknown)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("Parse() cmd = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	if !strings.Contains(buf.String(), "ragchat history list") {
		t.Error("usage should list history commands")
	}
	buf.Reset()
	PrintVersion(&buf)
	if !strings.Contains(buf.String(), Version) {
		t.Error("version output should contain Version")
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", &UsageError{Reason: "bad"}, ExitUsageError},
		{"not found", &NotFoundError{Resource: "conversation", ID: "x"}, ExitNotFoundError},
		{"validation", &params.ValidationError{Message: "No model is selected."}, ExitUsageError},
		{"unsupported extension", fmt.Errorf("upload: %w", upload.ErrUnsupportedExtension), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "log.level", Message: "bad"}}, ExitConfigError},
		{"timeout", &rag.TransportError{URL: "http://x", Timeout: time.Second, Err: context.DeadlineExceeded}, ExitTimeoutError},
		{"transport", &rag.TransportError{URL: "http://x", Err: errors.New("refused")}, ExitNetworkError},
		{"remote", &rag.RemoteError{Status: 500}, ExitNetworkError},
		{"storage", &storage.Error{Op: "set", Key: "chat:x", Err: errors.New("disk full")}, ExitStorageError},
		{"cancelled", context.Canceled, ExitInterrupted},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func newTestApp(t *testing.T, handler http.Handler) *app.App {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Endpoints.ChatURL = srv.URL + "/api/rag"
	cfg.Endpoints.IndexURL = srv.URL + "/api/indexing"
	cfg.Endpoints.ImageURL = srv.URL + "/api/image"
	cfg.Params.LLM = "ollama-llama3.1"
	cfg.UI.MarkdownStyle = "plain"

	a, err := app.NewWithBackend(context.Background(), cfg, storage.NewMemoryBackend(), "test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func bufStreams() (Streams, *bytes.Buffer) {
	var out bytes.Buffer
	return Streams{Out: &out, Err: &out}, &out
}

func saveChat(t *testing.T, a *app.App, id, first string) {
	t.Helper()
	msgs := []model.Message{model.NewUserMessage(first), {ID: "a-" + id, Role: model.RoleAssistant, Content: "answer to " + first}}
	if err := a.Chats.Save(context.Background(), id, msgs); err != nil {
		t.Fatal(err)
	}
}

func TestHandleHistory_List(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	ctx := context.Background()

	s, out := bufStreams()
	if err := HandleHistory(ctx, a, Args{}, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No saved conversations") {
		t.Errorf("empty list output = %q", out.String())
	}

	saveChat(t, a, "aaaaaaa", "first question")
	saveChat(t, a, "bbbbbbb", "second question")

	out.Reset()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"list"}}, s); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Conversations (2)", "aaaaaaa", "second question", "2 msgs"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if err := HandleHistory(ctx, a, Args{JSON: true, Raw: []string{"list"}}, s); err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Success bool          `json:"success"`
		Data    []ChatSummary `json:"data"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if !resp.Success || len(resp.Data) != 2 {
		t.Errorf("JSON response = %+v", resp)
	}
}

func TestHandleHistory_ShowDeleteClear(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	ctx := context.Background()
	saveChat(t, a, "aaaaaaa", "what is retrieval?")
	saveChat(t, a, "bbbbbbb", "other")

	s, out := bufStreams()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"show", "aaaaaaa"}}, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "answer to what is retrieval?") {
		t.Errorf("show output = %s", out.String())
	}

	err := HandleHistory(ctx, a, Args{Raw: []string{"show", "zzzzzzz"}}, s)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("show missing = %v, want NotFoundError", err)
	}

	out.Reset()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"delete", "aaaaaaa"}}, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Chat deleted.") {
		t.Errorf("delete output = %q", out.String())
	}
	if _, found, _ := a.Chats.Load(ctx, "aaaaaaa"); found {
		t.Error("record should be gone")
	}

	// No terminal and no --confirm: refuse.
	err = HandleHistory(ctx, a, Args{Raw: []string{"clear"}}, s)
	var ue *UsageError
	if !errors.As(err, &ue) {
		t.Errorf("clear without confirm = %v, want UsageError", err)
	}

	// Answering "n" cancels.
	s.In = strings.NewReader("n\n")
	out.Reset()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"clear"}}, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Cancelled.") {
		t.Errorf("cancel output = %q", out.String())
	}

	s.In = nil
	if err := HandleHistory(ctx, a, Args{Raw: []string{"clear", "--confirm"}}, s); err != nil {
		t.Fatal(err)
	}
	records, err := a.Chats.LoadAll(ctx)
	if err != nil || len(records) != 0 {
		t.Errorf("after clear: %d records, err %v", len(records), err)
	}
}

func TestHandleHistory_Export(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	ctx := context.Background()
	saveChat(t, a, "aaaaaaa", "what is retrieval?")

	s, out := bufStreams()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"export", "aaaaaaa", "--format", "json", "--stdout"}}, s); err != nil {
		t.Fatal(err)
	}
	var rec storage.ChatRecord
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("stdout export is not JSON: %v\n%s", err, out.String())
	}
	if rec.ID != "aaaaaaa" || len(rec.Messages) != 2 {
		t.Errorf("exported record = %+v", rec)
	}

	dir := t.TempDir()
	out.Reset()
	if err := HandleHistory(ctx, a, Args{Raw: []string{"export", "aaaaaaa", "--output", dir}}, s); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Exported to ") {
		t.Errorf("export output = %q", out.String())
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*-aaaaaaa.md"))
	if len(matches) != 1 {
		t.Fatalf("export files = %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "answer to what is retrieval?") {
		t.Errorf("markdown export = %s", data)
	}

	var ue *UsageError
	if err := HandleHistory(ctx, a, Args{Raw: []string{"export", "aaaaaaa", "--format", "pdf"}}, s); !errors.As(err, &ue) {
		t.Errorf("bad format = %v, want UsageError", err)
	}
	var nf *NotFoundError
	if err := HandleHistory(ctx, a, Args{Raw: []string{"export", "zzzzzzz", "--stdout"}}, s); !errors.As(err, &nf) {
		t.Errorf("missing chat = %v, want NotFoundError", err)
	}
}

func TestHandleHistory_Usage(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	s, _ := bufStreams()
	for _, raw := range [][]string{{"show"}, {"delete"}, {"bogus"}} {
		err := HandleHistory(context.Background(), a, Args{Raw: raw}, s)
		if ExitCode(err) != ExitUsageError {
			t.Errorf("history %v = %v, want usage error", raw, err)
		}
	}
}

func TestHandleUpload(t *testing.T) {
	var got upload.IndexRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/indexing", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, "{}")
	})
	a := newTestApp(t, mux)

	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, out := bufStreams()
	err := HandleUpload(context.Background(), a, Args{Raw: []string{path, "--embed", "ollama-mxbai-embed-large"}}, s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Upload success!") {
		t.Errorf("output = %q", out.String())
	}
	if got.FileName != "notes.md" || got.Content != "# hello" || got.IsBase64 {
		t.Errorf("request = %+v", got)
	}

	bad := filepath.Join(t.TempDir(), "run.exe")
	if err := os.WriteFile(bad, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	err = HandleUpload(context.Background(), a, Args{Raw: []string{bad}}, s)
	if !errors.Is(err, upload.ErrUnsupportedExtension) {
		t.Errorf("upload .exe = %v", err)
	}

	if err := HandleUpload(context.Background(), a, Args{}, s); ExitCode(err) != ExitUsageError {
		t.Errorf("upload without file = %v", err)
	}
}

func TestHandleConfig(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "config.toml")
	s, out := bufStreams()

	if err := HandleConfig(cfg, path, Args{Raw: []string{"path"}}, s); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != path {
		t.Errorf("path output = %q", out.String())
	}

	if err := HandleConfig(cfg, path, Args{Raw: []string{"init"}}, s); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write: %v", err)
	}
	if err := HandleConfig(cfg, path, Args{Raw: []string{"init"}}, s); ExitCode(err) != ExitUsageError {
		t.Errorf("second init = %v, want usage error", err)
	}
	if err := HandleConfig(cfg, path, Args{Raw: []string{"init", "--force"}}, s); err != nil {
		t.Errorf("init --force = %v", err)
	}

	out.Reset()
	if err := HandleConfig(cfg, path, Args{Raw: []string{"get", "storage.backend"}}, s); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "file" {
		t.Errorf("get output = %q", out.String())
	}

	cfg.Params.LLMAPIKey = "sk-hidden"
	out.Reset()
	if err := HandleConfig(cfg, path, Args{JSON: true, Raw: []string{"show"}}, s); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "sk-hidden") {
		t.Error("config show leaked an API key")
	}
}

// =============================================================================
// LINE-MODE CHAT TESTS (chat.go)
// =============================================================================

func TestREPL_StreamsAndCommands(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rag", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/plain")
		fl := w.(http.Flusher)
		for _, part := range []string{"Retrieval ", "augmented ", fmt.Sprintf("answer %d", calls)} {
			_, _ = io.WriteString(w, part)
			fl.Flush()
		}
	})
	a := newTestApp(t, mux)
	ctx := context.Background()

	var out, errOut bytes.Buffer
	r := newREPL(a, &out, &errOut)
	if err := r.open(ctx, ""); err != nil {
		t.Fatal(err)
	}

	quit, err := r.handleLine(ctx, "what is RAG?")
	if err != nil || quit {
		t.Fatalf("handleLine = %v, %v", quit, err)
	}
	if !strings.Contains(out.String(), "Retrieval augmented answer 1") {
		t.Errorf("streamed output = %q", out.String())
	}
	if !strings.Contains(out.String(), "Saved as /chat/") {
		t.Errorf("expected navigation notice, got %q", out.String())
	}

	// Reload prints only the new answer.
	out.Reset()
	if _, err := r.handleLine(ctx, "/reload"); err != nil {
		t.Fatal(err)
	}
	if strings.Count(out.String(), "Retrieval augmented answer") != 1 || !strings.Contains(out.String(), "answer 2") {
		t.Errorf("reload output = %q", out.String())
	}

	if _, err := r.handleLine(ctx, "/set temperature 0.3"); err != nil {
		t.Fatal(err)
	}
	if got := a.Params.Snapshot().Temperature; got != 0.3 {
		t.Errorf("temperature = %v", got)
	}
	if _, err := r.handleLine(ctx, "/set top-p 7"); !errors.Is(err, params.ErrOutOfRange) {
		t.Errorf("/set top-p 7 = %v, want ErrOutOfRange", err)
	}

	if _, err := r.handleLine(ctx, "/key sk-test"); err != nil {
		t.Fatal(err)
	}
	if a.Params.Snapshot().LLMAPIKey != "sk-test" {
		t.Error("/key should set the chat key")
	}
	if _, err := r.handleLine(ctx, "/forget-keys"); err != nil {
		t.Fatal(err)
	}
	if a.Params.Snapshot().LLMAPIKey != "" {
		t.Error("/forget-keys should clear keys")
	}

	if _, err := r.handleLine(ctx, "/delete 9"); ExitCode(err) != ExitUsageError {
		t.Errorf("/delete 9 = %v", err)
	}
	if _, err := r.handleLine(ctx, "/delete 2"); err != nil {
		t.Fatal(err)
	}
	if n := len(r.ctl.Messages()); n != 1 {
		t.Errorf("messages after delete = %d", n)
	}

	if _, err := r.handleLine(ctx, "/nope"); ExitCode(err) != ExitUsageError {
		t.Errorf("/nope = %v", err)
	}
	if quit, _ := r.handleLine(ctx, "/quit"); !quit {
		t.Error("/quit should quit")
	}
}

func TestREPL_ValidationIsNotified(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	a.Params.SetLLM("")
	ctx := context.Background()

	var out, errOut bytes.Buffer
	r := newREPL(a, &out, &errOut)
	if err := r.open(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := r.handleLine(ctx, "hello"); err != nil {
		t.Fatalf("validation errors are shown as notices, got %v", err)
	}
	if !strings.Contains(errOut.String(), "No model is selected.") {
		t.Errorf("notice output = %q", errOut.String())
	}
	if len(r.ctl.Messages()) != 0 {
		t.Error("rejected prompt must not be appended")
	}
}

func TestREPL_OpenSaved(t *testing.T) {
	a := newTestApp(t, http.NotFoundHandler())
	saveChat(t, a, "ccccccc", "saved prompt")

	var out, errOut bytes.Buffer
	r := newREPL(a, &out, &errOut)
	if err := r.open(context.Background(), "ccccccc"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[1] You: saved prompt") {
		t.Errorf("transcript output = %q", out.String())
	}

	var nf *NotFoundError
	if err := r.open(context.Background(), "missing"); !errors.As(err, &nf) {
		t.Errorf("open missing = %v", err)
	}
	if r.ctl.ID() != "ccccccc" {
		t.Error("failed open should keep the current conversation")
	}
}

func TestCompleteCommand(t *testing.T) {
	got := completeCommand("/em")
	if len(got) != 2 {
		t.Errorf("completeCommand(/em) = %v", got)
	}
	if completeCommand("hello") != nil {
		t.Error("plain text should not complete")
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "-"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.t, now); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
