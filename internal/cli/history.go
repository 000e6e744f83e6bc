// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Saved conversation commands.
//
// Command: history
// Aliases: h
//
// Examples:
//   ragchat history list
//   ragchat history show abc1234
//   ragchat history delete abc1234
//   ragchat history export abc1234 --format md --output ./exports
//   ragchat history export abc1234 --format json --stdout
//   ragchat history clear --confirm
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/export"
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/util"
)

// HandleHistory dispatches history subcommands.
func HandleHistory(ctx context.Context, a *app.App, args Args, s Streams) error {
	p := NewArgParser(args.Raw, "confirm", "y", "json", "stdout")
	jsonMode := args.JSON || p.BoolFlag("json")

	switch p.Subcommand() {
	case "", "list", "ls":
		return historyList(ctx, a, jsonMode, s)
	case "show", "cat":
		id := p.Positional(1)
		if id == "" {
			return &UsageError{Command: "history show", Reason: "missing conversation id"}
		}
		return historyShow(ctx, a, id, jsonMode, s)
	case "delete", "rm":
		id := p.Positional(1)
		if id == "" {
			return &UsageError{Command: "history delete", Reason: "missing conversation id"}
		}
		return historyDelete(ctx, a, id, s)
	case "export":
		id := p.Positional(1)
		if id == "" {
			return &UsageError{Command: "history export", Reason: "missing conversation id"}
		}
		dir := p.Flag("output", "o")
		if p.BoolFlag("stdout") {
			dir = "-"
		}
		return historyExport(ctx, a, id, p.FlagOrDefault("format", "md"), dir, s)
	case "clear":
		return historyClear(ctx, a, p.BoolFlag("confirm", "y"), jsonMode, s)
	default:
		return &UsageError{Command: "history", Reason: fmt.Sprintf("unknown subcommand %q", p.Subcommand())}
	}
}

func summarize(rec storage.ChatRecord) ChatSummary {
	return ChatSummary{
		ID:        rec.ID,
		Title:     rec.Title,
		Path:      rec.Path,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Messages:  rec.MessageCount(),
	}
}

func historyList(ctx context.Context, a *app.App, jsonMode bool, s Streams) error {
	load := func() ([]ChatSummary, error) {
		if err := a.List.Refresh(ctx); err != nil {
			return nil, err
		}
		records, _ := a.List.List()
		out := make([]ChatSummary, 0, len(records))
		for _, rec := range records {
			out = append(out, summarize(rec))
		}
		return out, nil
	}

	if jsonMode {
		return OutputJSON(s.Out, "history list", func() (interface{}, error) {
			return load()
		})
	}

	rows, err := load()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(s.Out, DimStyle.Render("No saved conversations."))
		return nil
	}

	now := time.Now()
	fmt.Fprintln(s.Out, TitleStyle.Render(fmt.Sprintf("Conversations (%d)", len(rows))))
	for _, r := range rows {
		title := util.PadWidth(util.TruncateWidth(util.SingleLine(r.Title), 48), 48)
		fmt.Fprintf(s.Out, "  %s  %s  %s  %s\n",
			ValueStyle.Render(r.ID),
			title,
			DimStyle.Render(fmt.Sprintf("%3d msgs", r.Messages)),
			DimStyle.Render(formatAge(r.CreatedAt, now)),
		)
	}
	return nil
}

func historyShow(ctx context.Context, a *app.App, id string, jsonMode bool, s Streams) error {
	rec, found, err := a.Chats.Load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "conversation", ID: id}
	}
	if jsonMode {
		return NewJSONResponse("history show", rec).Write(s.Out)
	}

	fmt.Fprintln(s.Out, TitleStyle.Render(rec.Title))
	fmt.Fprintf(s.Out, "%s%s\n", RenderLabel("Created"), rec.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(s.Out, "%s%d\n", RenderLabel("Messages"), rec.MessageCount())
	fmt.Fprintln(s.Out, RenderSeparator(GetTerminalWidth()-2))
	fmt.Fprint(s.Out, a.Render.Render(rec.Path, GetTerminalWidth(), rec.Messages))
	return nil
}

func historyDelete(ctx context.Context, a *app.App, id string, s Streams) error {
	rec, found, err := a.Chats.Load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "conversation", ID: id}
	}
	if err := a.Chats.Remove(ctx, id, rec.Path); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, RenderNotice(notify.Success(notify.ChatDeletedMessage)))
	return nil
}

// historyExport writes the conversation into dir, or to stdout when dir is "-".
func historyExport(ctx context.Context, a *app.App, id, format, dir string, s Streams) error {
	exp, err := export.For(format, export.DefaultOptions())
	if err != nil {
		return &UsageError{Command: "history export", Reason: err.Error()}
	}
	rec, found, err := a.Chats.Load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Resource: "conversation", ID: id}
	}

	if dir == "-" {
		data, err := exp.Export(rec)
		if err != nil {
			return err
		}
		_, err = s.Out.Write(data)
		return err
	}
	path, err := export.ToFile(rec, exp, dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Out, RenderNotice(notify.Success("Exported to "+path)))
	return nil
}

func historyClear(ctx context.Context, a *app.App, confirm, jsonMode bool, s Streams) error {
	ok, err := RequireConfirmation(confirm, "delete every saved conversation", jsonMode, s.In, s.Out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.Out, "Cancelled.")
		return nil
	}
	if err := a.Chats.Clear(ctx); err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("history clear", map[string]bool{"cleared": true}).Write(s.Out)
	}
	fmt.Fprintln(s.Out, RenderNotice(notify.Success(notify.ChatsClearedMessage)))
	return nil
}
