// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/debugbridge/bridge"
	"github.com/bureau-foundation/debugbridge/lib/clock"
	"github.com/bureau-foundation/debugbridge/transcript"
)

// DefaultTickInterval is how often the console drains bridge events.
const DefaultTickInterval = 20 * time.Millisecond

// Bridge is the part of a bridge handle the console drives.
type Bridge interface {
	Send(text string)
	DrainEvents() []bridge.Event
}

// ColorMode selects how the console decides whether to emit color.
type ColorMode string

const (
	// ColorAuto detects color support from the output.
	ColorAuto ColorMode = "auto"

	// ColorAlways emits 256-color output even when piped.
	ColorAlways ColorMode = "always"

	// ColorNever emits plain text.
	ColorNever ColorMode = "never"
)

// ParseColorMode parses a --color flag value.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(value); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("console: unknown color mode %q (want auto, always, or never)", value)
	}
}

// Console relays lines between a terminal and a bridge.
type Console struct {
	// Bridge carries messages to and from the peer. Required.
	Bridge Bridge

	// In supplies outbound lines. Required.
	In io.Reader

	// Out receives rendered events. Required.
	Out io.Writer

	// Transcript, if set, records every sent line and printed event.
	// The console does not close it.
	Transcript *transcript.Writer

	// Color controls styling. Empty means ColorAuto.
	Color ColorMode

	// TickInterval is how often events are drained. Zero means
	// DefaultTickInterval.
	TickInterval time.Duration

	// Clock drives the drain ticker and stamps outbound transcript
	// entries. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Console) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Console) clock() clock.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return clock.Real()
}

// styles holds the rendering for each kind of output line.
type styles struct {
	peer   lipgloss.Style
	status lipgloss.Style
}

func (c *Console) styles() styles {
	renderer := lipgloss.NewRenderer(c.Out)
	switch c.Color {
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	}
	return styles{
		peer:   renderer.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		status: renderer.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
	}
}

// Run relays until the input ends or ctx is cancelled, then prints any
// events still queued. It returns the input's read error, if any.
//
// The goroutine reading In is not interruptible; if ctx ends first it
// exits when In next returns.
func (c *Console) Run(ctx context.Context) error {
	style := c.styles()

	lines := make(chan string)
	inputDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				inputDone <- nil
				return
			}
		}
		inputDone <- scanner.Err()
	}()

	interval := c.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := c.clock().NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case line := <-lines:
			c.send(line)
		case <-ticker.C:
			c.printEvents(style)
		case err := <-inputDone:
			c.printEvents(style)
			if err != nil {
				return fmt.Errorf("console: reading input: %w", err)
			}
			return nil
		case <-ctx.Done():
			c.printEvents(style)
			return nil
		}
	}
}

func (c *Console) send(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	c.Bridge.Send(line)
	c.record(transcript.Entry{Time: c.clock().Now(), Direction: transcript.Outbound, Text: line})
}

func (c *Console) printEvents(style styles) {
	for _, event := range c.Bridge.DrainEvents() {
		var line string
		var direction transcript.Direction
		switch event.Kind {
		case bridge.EventMessage:
			line = style.peer.Render("peer>") + " " + ansi.Strip(event.Text)
			direction = transcript.Inbound
		case bridge.EventPeerConnected:
			line = style.status.Render("* connected " + event.Remote)
			direction = transcript.Connect
		case bridge.EventPeerDisconnected:
			line = style.status.Render("* disconnected")
			direction = transcript.Disconnect
		default:
			continue
		}
		if _, err := fmt.Fprintln(c.Out, line); err != nil {
			c.logger().Warn("console output failed", "error", err)
		}
		c.record(transcript.Entry{
			Time:      event.Time,
			Direction: direction,
			Remote:    event.Remote,
			Text:      event.Text,
		})
	}
}

func (c *Console) record(entry transcript.Entry) {
	if c.Transcript == nil {
		return
	}
	if err := c.Transcript.Write(entry); err != nil {
		c.logger().Warn("transcript write failed", "error", err)
	}
}
