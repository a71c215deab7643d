// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/debugbridge/bridge"
	"github.com/bureau-foundation/debugbridge/lib/clock"
	"github.com/bureau-foundation/debugbridge/lib/testutil"
	"github.com/bureau-foundation/debugbridge/transcript"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeBridge struct {
	mu     sync.Mutex
	sent   []string
	events []bridge.Event
}

func (f *fakeBridge) Send(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
}

func (f *fakeBridge) DrainEvents() []bridge.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := f.events
	f.events = nil
	return events
}

func (f *fakeBridge) queue(events ...bridge.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

func (f *fakeBridge) sentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

type harness struct {
	bridge *fakeBridge
	clock  *clock.FakeClock
	input  *io.PipeWriter
	output *syncBuffer
	result chan error
}

func startConsole(t *testing.T, configure func(*Console)) *harness {
	t.Helper()
	reader, writer := io.Pipe()
	h := &harness{
		bridge: &fakeBridge{},
		clock:  clock.Fake(epoch),
		input:  writer,
		output: &syncBuffer{},
		result: make(chan error, 1),
	}
	c := &Console{
		Bridge: h.bridge,
		In:     reader,
		Out:    h.output,
		Color:  ColorNever,
		Clock:  h.clock,
	}
	if configure != nil {
		configure(c)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { h.result <- c.Run(ctx) }()
	h.clock.WaitForTickers(1)
	return h
}

func (h *harness) tick() {
	h.clock.Advance(DefaultTickInterval)
}

func (h *harness) finish(t *testing.T) {
	t.Helper()
	h.input.Close()
	if err := testutil.RequireReceive(t, h.result, 5*time.Second, "waiting for Run to return"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSendsNonEmptyLines(t *testing.T) {
	h := startConsole(t, nil)

	io.WriteString(h.input, "hello\n\n   \nspawn enemy\r\n")
	h.finish(t)

	want := []string{"hello", "spawn enemy"}
	if got := h.bridge.sentMessages(); !slices.Equal(got, want) {
		t.Errorf("sent %q, want %q", got, want)
	}
}

func TestPrintsEventsOnTick(t *testing.T) {
	h := startConsole(t, nil)

	h.bridge.queue(
		bridge.Event{Kind: bridge.EventPeerConnected, Remote: "127.0.0.1:50000"},
		bridge.Event{Kind: bridge.EventMessage, Text: "player_x=10"},
		bridge.Event{Kind: bridge.EventPeerDisconnected, Remote: "127.0.0.1:50000"},
	)
	h.tick()

	want := "* connected 127.0.0.1:50000\npeer> player_x=10\n* disconnected\n"
	testutil.Eventually(t, 5*time.Second, func() bool {
		return h.output.String() == want
	}, "waiting for rendered events")
	h.finish(t)
}

func TestFinalDrainOnInputEnd(t *testing.T) {
	h := startConsole(t, nil)

	h.bridge.queue(bridge.Event{Kind: bridge.EventMessage, Text: "late"})
	h.finish(t)

	if got := h.output.String(); got != "peer> late\n" {
		t.Errorf("output = %q", got)
	}
}

func TestStripsEscapeSequences(t *testing.T) {
	h := startConsole(t, nil)

	h.bridge.queue(bridge.Event{Kind: bridge.EventMessage, Text: "\x1b[31mred\x1b[0m\x1b]0;title\x07"})
	h.finish(t)

	if got := h.output.String(); got != "peer> red\n" {
		t.Errorf("output = %q", got)
	}
}

func TestColorAlways(t *testing.T) {
	h := startConsole(t, func(c *Console) { c.Color = ColorAlways })

	h.bridge.queue(bridge.Event{Kind: bridge.EventMessage, Text: "hi"})
	h.finish(t)

	output := h.output.String()
	if !strings.Contains(output, "\x1b[") {
		t.Errorf("expected styled output, got %q", output)
	}
	if !strings.HasSuffix(output, " hi\n") {
		t.Errorf("peer text altered: %q", output)
	}
}

func TestRecordsTranscript(t *testing.T) {
	var recording bytes.Buffer
	writer, err := transcript.NewWriter(&recording, transcript.CompressionNone)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	h := startConsole(t, func(c *Console) { c.Transcript = writer })
	h.bridge.queue(
		bridge.Event{Kind: bridge.EventPeerConnected, Remote: "127.0.0.1:50000", Time: epoch},
		bridge.Event{Kind: bridge.EventMessage, Text: "ready", Remote: "127.0.0.1:50000", Time: epoch},
	)
	h.tick()
	testutil.Eventually(t, 5*time.Second, func() bool {
		return strings.Contains(h.output.String(), "ready")
	}, "waiting for inbound message")
	io.WriteString(h.input, "go\n")
	h.finish(t)

	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	reader, err := transcript.NewReader(&recording, transcript.CompressionNone)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	entries, err := reader.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}

	var directions []transcript.Direction
	for _, entry := range entries {
		directions = append(directions, entry.Direction)
	}
	want := []transcript.Direction{transcript.Connect, transcript.Inbound, transcript.Outbound}
	if !slices.Equal(directions, want) {
		t.Fatalf("directions = %v, want %v", directions, want)
	}
	if entries[2].Text != "go" || !entries[2].Time.Equal(epoch.Add(DefaultTickInterval)) {
		t.Errorf("outbound entry = %+v", entries[2])
	}
}

func TestContextCancelStopsRun(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	c := &Console{
		Bridge: &fakeBridge{},
		In:     reader,
		Out:    io.Discard,
		Color:  ColorNever,
	}
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- c.Run(ctx) }()

	cancel()
	if err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Run after cancel"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestParseColorMode(t *testing.T) {
	tests := map[string]ColorMode{
		"":       ColorAuto,
		"auto":   ColorAuto,
		"always": ColorAlways,
		"never":  ColorNever,
	}
	for value, want := range tests {
		got, err := ParseColorMode(value)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %q, %v; want %q", value, got, err, want)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("ParseColorMode(sometimes) succeeded")
	}
}
