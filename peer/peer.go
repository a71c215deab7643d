// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package peer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/debugbridge/lib/clock"
	"github.com/bureau-foundation/debugbridge/lib/netutil"
	"github.com/bureau-foundation/debugbridge/lib/nulframe"
)

// DefaultFarewell is the frame a bridge sends on shutdown by
// convention.
const DefaultFarewell = nulframe.FarewellToken

// Client is one peer connection to a bridge.
type Client struct {
	// Address is the bridge's host:port. Required.
	Address string

	// In supplies outbound lines. Nil sends nothing but heartbeats.
	In io.Reader

	// Out receives inbound frames, one per line. Required.
	Out io.Writer

	// HeartbeatInterval is the period of heartbeat frames. Zero
	// disables them.
	HeartbeatInterval time.Duration

	// Farewell is the inbound frame that ends the session. Empty
	// disables farewell handling.
	Farewell string

	// MaxFrameSize caps an inbound frame. Zero uses the nulframe
	// default.
	MaxFrameSize int

	// Clock drives the heartbeat ticker. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// errFarewell ends the receive loop when the farewell frame arrives.
var errFarewell = errors.New("farewell received")

// Run connects and serves the session until it ends. A session ended
// by the bridge (close or farewell) or by ctx is not an error.
func (c *Client) Run(ctx context.Context) error {
	if c.Address == "" {
		return fmt.Errorf("peer: Address is required")
	}

	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return fmt.Errorf("peer: dialing %s: %w", c.Address, err)
	}
	connection := raw.(*net.TCPConn)
	defer connection.Close()

	logger := c.logger().With("remote_addr", connection.RemoteAddr().String())
	logger.Info("connected to bridge")

	received := make(chan error, 1)
	go func() { received <- c.receive(connection) }()

	lines := make(chan string)
	inputDone := make(chan struct{})
	if c.In != nil {
		go func() {
			defer close(inputDone)
			scanner := bufio.NewScanner(c.In)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					return
				}
			}
			if err := scanner.Err(); err != nil {
				logger.Warn("reading input", "error", err)
			}
		}()
	}

	var heartbeat <-chan time.Time
	if c.HeartbeatInterval > 0 {
		peerClock := c.Clock
		if peerClock == nil {
			peerClock = clock.Real()
		}
		ticker := peerClock.NewTicker(c.HeartbeatInterval)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	// Without input, inputDone never closes and the session lasts until
	// the bridge ends it.
	waitInput := inputDone
	for {
		select {
		case line := <-lines:
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			if err := c.write(connection, line); err != nil {
				return c.finish(connection, logger, received, err)
			}
		case <-heartbeat:
			if err := c.write(connection, nulframe.HeartbeatToken); err != nil {
				return c.finish(connection, logger, received, err)
			}
		case <-waitInput:
			waitInput = nil
			lines = nil
			if err := connection.CloseWrite(); err != nil {
				logger.Debug("close write failed", "error", err)
			}
		case err := <-received:
			return c.ended(logger, err)
		case <-ctx.Done():
			logger.Info("disconnecting")
			return nil
		}
	}
}

// receive prints inbound frames until the stream ends.
func (c *Client) receive(connection net.Conn) error {
	decoder := nulframe.Decoder{MaxFrameSize: c.MaxFrameSize}
	buffer := make([]byte, 4096)
	for {
		count, readError := connection.Read(buffer)
		if count > 0 {
			frames, decodeError := decoder.Feed(buffer[:count])
			for _, frame := range frames {
				if c.Farewell != "" && frame == c.Farewell {
					return errFarewell
				}
				if _, err := fmt.Fprintln(c.Out, ansi.Strip(frame)); err != nil {
					return err
				}
			}
			if decodeError != nil {
				return fmt.Errorf("peer: decoding frame: %w", decodeError)
			}
		}
		if readError != nil {
			return readError
		}
	}
}

func (c *Client) write(connection net.Conn, text string) error {
	_, err := connection.Write(nulframe.Encode(text))
	return err
}

// finish handles a write failure. A write fails when the bridge has
// already gone, in which case the receive side reports why.
func (c *Client) finish(connection net.Conn, logger *slog.Logger, received <-chan error, writeError error) error {
	if !netutil.IsPeerGone(writeError) {
		return fmt.Errorf("peer: write: %w", writeError)
	}
	connection.Close()
	return c.ended(logger, <-received)
}

func (c *Client) ended(logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, errFarewell):
		logger.Info("bridge said farewell")
		return nil
	case err == nil, netutil.IsPeerGone(err):
		logger.Info("bridge closed the connection")
		return nil
	default:
		return fmt.Errorf("peer: read: %w", err)
	}
}
