// ragchat - a terminal client for retrieval-augmented chat backends.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/cli"
	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/logging"
	"github.com/jeranaias/ragchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args := cli.Parse(argv)
	cli.ConfigureColors(args.NoColor)
	streams := cli.StdStreams()

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(streams.Out)
		return cli.ExitSuccess
	case cli.CmdHelp:
		if args.Unknown != "" {
			fmt.Fprintln(streams.Err, cli.ErrorStyle.Render("Unknown command: "+args.Unknown))
			cli.PrintUsage(streams.Err)
			return cli.ExitUsageError
		}
		cli.PrintUsage(streams.Out)
		return cli.ExitSuccess
	}

	cfg, cfgPath, err := loadConfig(cmd, args)
	if err != nil {
		return fail(streams.Err, err)
	}

	if cmd == cli.CmdTUI && !cli.IsInteractive() {
		cmd = cli.CmdChat
	}
	closeLog, err := setupLogging(cfg, cmd, args)
	if err != nil {
		return fail(streams.Err, err)
	}
	defer closeLog()

	if cmd == cli.CmdConfig {
		return fail(streams.Err, cli.HandleConfig(cfg, cfgPath, args, streams))
	}

	// The chat modes map Ctrl+C to stopping the current answer.
	sigs := []os.Signal{syscall.SIGTERM}
	if cmd == cli.CmdHistory || cmd == cli.CmdUpload {
		sigs = append(sigs, os.Interrupt)
	}
	ctx, stop := signal.NotifyContext(context.Background(), sigs...)
	defer stop()

	a, err := app.New(ctx, cfg, cli.UserAgent())
	if err != nil {
		return fail(streams.Err, err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close storage")
		}
	}()
	if args.Model != "" {
		a.Params.SetLLM(args.Model)
	}
	a.ServeMetrics(ctx)

	switch cmd {
	case cli.CmdChat:
		err = cli.HandleChat(ctx, a, args, streams)
	case cli.CmdHistory:
		err = cli.HandleHistory(ctx, a, args, streams)
	case cli.CmdUpload:
		err = cli.HandleUpload(ctx, a, args, streams)
	default:
		err = runTUI(ctx, a, args)
	}
	return fail(streams.Err, err)
}

// runTUI starts the full-screen chat.
func runTUI(ctx context.Context, a *app.App, args cli.Args) error {
	m, err := chat.New(ctx, a, chat.Options{ChatID: args.ChatID})
	if err != nil {
		return err
	}
	return chat.Run(ctx, m)
}

// loadConfig reads the config file named by --config, or the default one,
// and applies command-line overrides.
func loadConfig(cmd cli.Command, args cli.Args) (*config.Config, string, error) {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	var (
		cfg *config.Config
		err error
	)
	switch {
	case args.ConfigPath == "":
		cfg, err = config.Load()
	case cmd == cli.CmdConfig && !fileExists(path):
		// config init may create it.
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
	default:
		cfg, err = config.LoadFromPath(path)
	}
	if err != nil {
		return nil, "", err
	}

	if args.Storage != "" {
		cfg.Storage.Backend = args.Storage
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	return cfg, path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setupLogging sends logs to the log file for the TUI, which owns the
// screen, and to stderr otherwise.
func setupLogging(cfg *config.Config, cmd cli.Command, args cli.Args) (func(), error) {
	level := cfg.Log.Level
	switch {
	case args.Verbose:
		level = "debug"
	case args.Quiet:
		level = "error"
	}

	if cmd != cli.CmdTUI {
		logging.Setup(level, logging.Console(os.Stderr, cli.ColorsEnabled()))
		return func() {}, nil
	}

	path, err := cfg.LogFile()
	if err != nil {
		return nil, err
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.Setup(level, f)
	return func() { _ = f.Close() }, nil
}

// fail prints err and returns its exit code.
func fail(w io.Writer, err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	if errors.Is(err, context.Canceled) {
		return cli.ExitInterrupted
	}
	fmt.Fprintln(w, cli.ErrorStyle.Render("Error: ")+err.Error())
	return cli.ExitCode(err)
}
