// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands for
// ragchat.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global flags
//   - ArgParser: Flag and positional parsing shared by subcommands
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    err = cli.HandleChat(ctx, a, args)
//	case cli.CmdHistory:
//	    err = cli.HandleHistory(ctx, a, args, os.Stdout)
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default)
//   - chat: Line-mode chat with history and line editing
//   - history: List, show, delete or clear saved conversations
//   - upload: Send a document or image to the indexing backend
//   - config: Show, locate, initialize or query configuration
//
// List and config commands support --json.
package cli
