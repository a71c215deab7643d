// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/debugbridge/bridge"
	"github.com/bureau-foundation/debugbridge/console"
	"github.com/bureau-foundation/debugbridge/lib/config"
	"github.com/bureau-foundation/debugbridge/lib/process"
	"github.com/bureau-foundation/debugbridge/transcript"
)

type serveOptions struct {
	listen      string
	configPath  string
	record      string
	compression string
	farewell    string
	color       string
	wait        bool
	verbose     bool
}

func runServe(args []string, std streams) error {
	var options serveOptions
	flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flagSet.StringVarP(&options.listen, "listen", "l", "", "TCP address to listen on (default from config, else 127.0.0.1:6510)")
	flagSet.StringVar(&options.configPath, "config", "", "YAML config file (default: $DEBUGBRIDGE_CONFIG if set)")
	flagSet.StringVar(&options.record, "record", "", "record the session to this transcript file")
	flagSet.StringVar(&options.compression, "compression", "", "transcript compression: none, zstd, lz4 (default: from file extension)")
	flagSet.StringVar(&options.farewell, "farewell", "", "frame sent to a connected peer on shutdown (default from config, else \"kill\"; empty disables)")
	flagSet.StringVar(&options.color, "color", "auto", "colorize output: auto, always, never")
	flagSet.BoolVar(&options.wait, "wait", false, "wait for the first peer before reading input")
	flagSet.BoolVarP(&options.verbose, "verbose", "v", false, "log every message at debug level")

	help, err := parseFlags(flagSet, args, std, "debugbridge serve [flags]")
	if help || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return process.Usagef("serve: unexpected argument %q", flagSet.Arg(0))
	}

	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if options.verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(std.stderr, level)

	colorMode, err := console.ParseColorMode(options.color)
	if err != nil {
		return process.Usagef("serve: %w", err)
	}

	b := &bridge.Bridge{
		ListenAddr: options.listen,
		Logger:     logger,
	}
	if err := cfg.Configure(b); err != nil {
		return err
	}
	if flagSet.Changed("farewell") {
		b.Farewell = options.farewell
	}

	recorder, err := openTranscript(cfg, options)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer func() {
			if err := recorder.Close(); err != nil {
				logger.Error("closing transcript", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bridge outlives ctx so that a signal goes through Shutdown and
	// the peer gets the orderly close.
	if err := b.Start(context.Background()); err != nil {
		return err
	}

	if options.wait {
		logger.Info("waiting for peer", "listen_addr", b.Addr().String())
		if err := b.WaitForFirstConnection(ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.Shutdown()
			return err
		}
	}

	if isTerminal(std.stdin) {
		fmt.Fprintf(std.stderr, "listening on %s; type a line to send it, Ctrl-D to quit\n", b.Addr())
	}

	front := &console.Console{
		Bridge:     b,
		In:         std.stdin,
		Out:        std.stdout,
		Transcript: recorder,
		Color:      colorMode,
		Logger:     logger,
	}
	consoleDone := make(chan error, 1)
	go func() { consoleDone <- front.Run(ctx) }()

	var consoleError error
	select {
	case consoleError = <-consoleDone:
	case <-b.Done():
		stop()
		consoleError = <-consoleDone
	}

	if err := b.Shutdown(); err != nil {
		return err
	}
	return consoleError
}

// loadConfig reads the file named by --config, then DEBUGBRIDGE_CONFIG,
// and falls back to built-in defaults when neither is given.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

func openTranscript(cfg *config.Config, options serveOptions) (*transcript.Writer, error) {
	path := options.record
	if path == "" {
		path = cfg.Transcript.Path
	}
	if path == "" {
		return nil, nil
	}

	// --record without --compression infers from the file extension.
	var compression transcript.Compression
	switch {
	case options.compression != "":
		parsed, err := transcript.ParseCompression(options.compression)
		if err != nil {
			return nil, process.Usagef("serve: %w", err)
		}
		compression = parsed
	case options.record == "":
		parsed, err := cfg.TranscriptCompression()
		if err != nil {
			return nil, err
		}
		compression = parsed
	}

	writer, err := transcript.Create(path, compression)
	if err != nil {
		return nil, fmt.Errorf("serve: %w", err)
	}
	return writer, nil
}
