// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration commands.
//
// Command: config
//
// Examples:
//   ragchat config show
//   ragchat config path
//   ragchat config init --force
//   ragchat config get endpoints.chat_url
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/ragchat/internal/config"
)

// HandleConfig dispatches config subcommands. path is the config file in use.
func HandleConfig(cfg *config.Config, path string, args Args, s Streams) error {
	p := NewArgParser(args.Raw, "force", "json")
	jsonMode := args.JSON || p.BoolFlag("json")

	switch p.Subcommand() {
	case "", "show":
		if jsonMode {
			return NewJSONResponse("config show", cfg).Write(s.Out)
		}
		fmt.Fprintln(s.Out, DimStyle.Render("# "+path))
		fmt.Fprint(s.Out, cfg.String())
		return nil

	case "path":
		fmt.Fprintln(s.Out, path)
		return nil

	case "init":
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return &UsageError{Command: "config init", Reason: path + " already exists; use --force to overwrite"}
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, SuccessStyle.Render("Wrote ")+path)
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return &UsageError{Command: "config get", Reason: "missing key"}
		}
		v, err := cfg.Get(key)
		if err != nil {
			return &UsageError{Command: "config get", Reason: err.Error()}
		}
		if jsonMode {
			return NewJSONResponse("config get", map[string]interface{}{key: v}).Write(s.Out)
		}
		fmt.Fprintln(s.Out, v)
		return nil

	default:
		return &UsageError{Command: "config", Reason: fmt.Sprintf("unknown subcommand %q", p.Subcommand())}
	}
}
