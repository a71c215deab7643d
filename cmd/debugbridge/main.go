// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/debugbridge/lib/process"
	"github.com/bureau-foundation/debugbridge/lib/version"
)

// streams are the process's standard streams, replaceable in tests.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	if err := run(os.Args[1:], streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, std streams) error {
	if len(args) == 0 {
		printUsage(std.stderr)
		return process.Usagef("no command given")
	}

	switch command, rest := args[0], args[1:]; command {
	case "serve":
		return runServe(rest, std)
	case "dial":
		return runDial(rest, std)
	case "replay":
		return runReplay(rest, std)
	case "--version", "version":
		version.Print(std.stdout, "debugbridge")
		return nil
	case "-h", "--help", "help":
		printUsage(std.stdout)
		return nil
	default:
		printUsage(std.stderr)
		return process.Usagef("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `debugbridge - TCP debug console for a single game connection

USAGE
    debugbridge serve [flags]
    debugbridge dial <addr> [flags]
    debugbridge replay <path> [flags]
    debugbridge --version

Run "debugbridge <command> --help" for the flags of each command.

EXAMPLES
    # Listen on the default port and type commands to the game
    debugbridge serve

    # Record the session and tell the game to exit on Ctrl-C
    debugbridge serve --record session.cbor.zst --farewell kill

    # Pretend to be a game
    debugbridge dial 127.0.0.1:6510 --heartbeat 1s
`)
}

// parseFlags parses a subcommand's flags. It returns true when help was
// requested and printed.
func parseFlags(flagSet *pflag.FlagSet, args []string, std streams, usage string) (bool, error) {
	flagSet.SetOutput(std.stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(std.stderr, "Usage:\n  %s\n\nFlags:\n", usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, &process.UsageError{Err: err}
	}
	return false, nil
}
