// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/debugbridge/lib/process"
	"github.com/bureau-foundation/debugbridge/peer"
)

func runDial(args []string, std streams) error {
	var heartbeat time.Duration
	var farewell string
	var verbose bool

	flagSet := pflag.NewFlagSet("dial", pflag.ContinueOnError)
	flagSet.DurationVar(&heartbeat, "heartbeat", time.Second, "heartbeat period (0 disables)")
	flagSet.StringVar(&farewell, "farewell", peer.DefaultFarewell, "frame from the bridge that ends the session (empty disables)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	help, err := parseFlags(flagSet, args, std, "debugbridge dial <addr> [flags]")
	if help || err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return process.Usagef("dial: expected exactly one address, got %d arguments", flagSet.NArg())
	}
	if heartbeat < 0 {
		return process.Usagef("dial: --heartbeat must not be negative")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &peer.Client{
		Address:           flagSet.Arg(0),
		In:                std.stdin,
		Out:               std.stdout,
		HeartbeatInterval: heartbeat,
		Farewell:          farewell,
		Logger:            newLogger(std.stderr, level),
	}
	return client.Run(ctx)
}
