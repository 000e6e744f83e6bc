// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing for ragchat.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// UserAgent is sent on every backend request.
func UserAgent() string {
	return "ragchat/" + Version
}

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdHistory
	CmdUpload
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdUpload:
		return "upload"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	NoColor    bool
	ConfigPath string
	Model      string
	Storage    string

	// Chat opens this conversation instead of starting a new one.
	ChatID string

	// Subcommand and everything after the command name.
	Subcommand string
	Raw        []string

	// Unknown is set when the command name was not recognized.
	Unknown string
}

const usageText = `ragchat - terminal client for a retrieval-augmented chat backend

Usage:
  ragchat                          Start the TUI (default)
  ragchat tui [--chat ID]          Start the TUI, optionally on a saved chat
  ragchat chat [--chat ID]         Line-mode chat
  ragchat history [subcommand]     Saved conversations
  ragchat upload FILE              Index a document or upload an image
  ragchat config [subcommand]      Configuration
  ragchat version                  Show version
  ragchat help                     Show this help

History Commands:
  ragchat history list             List conversations, newest first
  ragchat history show ID          Print a conversation
  ragchat history delete ID        Delete a conversation
  ragchat history export ID        Write a conversation as Markdown or JSON
                                   (--format md|json, --output DIR, --stdout)
  ragchat history clear --confirm  Delete every conversation

Config Commands:
  ragchat config show              Print the effective configuration
  ragchat config path              Print the config file path
  ragchat config init [--force]    Write a default config file
  ragchat config get KEY           Print one value (e.g. endpoints.chat_url)

Chat Commands (line mode):
  /help                            Show available commands
  /new                             Start a new conversation
  /reload                          Regenerate the last answer
  /delete N                        Delete message N
  /model [ID]                      Show or select the chat model
  /key [KEY]                       Set the API key for the chat model
  /embed [ID]                      Show or select the embedding model
  /upload FILE                     Upload a file
  /params                          Show generation parameters
  /forget-keys                     Remove all API keys from memory
  /quit                            Exit
  Ctrl+C                           Stop the current answer

Global Flags:
  --config PATH                    Use this config file
  --model ID                       Chat model for this run
  --storage KIND                   file, sqlite, bolt, redis or memory
  --json                           JSON output for list and config commands
  --no-color                       Disable colors
  -q, --quiet                      Minimal output
  -v, --verbose                    Debug logging

Environment:
  RAGCHAT_HOME                     Data and config directory (default ~/.ragchat)
  RAGCHAT_LLM_API_KEY              API key for hosted chat models
  RAGCHAT_EMBED_API_KEY            API key for hosted embedding models

Version: %s
`

// PrintUsage writes the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "ragchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
	}

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "chat":
		return CmdChat, args
	case "history", "h":
		return CmdHistory, args
	case "upload", "index":
		return CmdUpload, args
	case "config":
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		args.Unknown = cmd
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	value := func(i *int, flag string) string {
		arg := argv[*i]
		if v, ok := strings.CutPrefix(arg, flag+"="); ok {
			return v
		}
		if *i+1 < len(argv) {
			*i++
			return argv[*i]
		}
		return ""
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		name, _, _ := strings.Cut(arg, "=")

		switch name {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--no-color":
			args.NoColor = true
		case "--config":
			args.ConfigPath = value(&i, "--config")
		case "--model", "-m":
			args.Model = value(&i, name)
		case "--storage":
			args.Storage = value(&i, "--storage")
		case "--chat":
			args.ChatID = value(&i, "--chat")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, args
}
