// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/debugbridge/lib/process"
	"github.com/bureau-foundation/debugbridge/transcript"
)

const replayTimeFormat = "15:04:05.000"

func runReplay(args []string, std streams) error {
	var compressionName string
	flagSet := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flagSet.StringVar(&compressionName, "compression", "", "transcript compression: none, zstd, lz4 (default: from file extension)")

	help, err := parseFlags(flagSet, args, std, "debugbridge replay <path> [flags]")
	if help || err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return process.Usagef("replay: expected exactly one transcript path, got %d arguments", flagSet.NArg())
	}
	path := flagSet.Arg(0)

	reader, err := openReplay(path, compressionName)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("replay %s: %w", path, err)
		}
		fmt.Fprintln(std.stdout, formatEntry(entry))
	}
}

func openReplay(path, compressionName string) (*transcript.Reader, error) {
	if compressionName == "" {
		return transcript.Open(path)
	}
	compression, err := transcript.ParseCompression(compressionName)
	if err != nil {
		return nil, process.Usagef("replay: %w", err)
	}
	return transcript.OpenWith(path, compression)
}

func formatEntry(entry transcript.Entry) string {
	timestamp := entry.Time.Format(replayTimeFormat)
	switch entry.Direction {
	case transcript.Connect:
		return fmt.Sprintf("%s * connected %s", timestamp, entry.Remote)
	case transcript.Disconnect:
		return fmt.Sprintf("%s * disconnected", timestamp)
	case transcript.Outbound:
		return fmt.Sprintf("%s you>  %s", timestamp, ansi.Strip(entry.Text))
	default:
		return fmt.Sprintf("%s peer> %s", timestamp, ansi.Strip(entry.Text))
	}
}
