// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/debugbridge/lib/clock"
	"github.com/bureau-foundation/debugbridge/lib/netutil"
	"github.com/bureau-foundation/debugbridge/lib/nulframe"
)

// sessionOutcome is how a connected session ended.
type sessionOutcome int

const (
	// outcomeDisconnected sends the worker back to listening.
	outcomeDisconnected sessionOutcome = iota

	// outcomeTerminated stops the worker cleanly.
	outcomeTerminated
)

// run is the worker goroutine. It alternates between listening and
// serving one session until told to stop, then records why it stopped.
// The sockets are touched by no other goroutine.
func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)

	err := b.serve(ctx)
	b.err = err

	if err != nil {
		b.logger().Error("bridge worker stopped", "error", err)
		return
	}
	b.logger().Info("bridge stopped", "listen_addr", b.addr.String())
}

// serve owns the listener. It is closed as soon as a peer is accepted,
// so a second dial during a session is refused instead of parked in the
// backlog, and bound again on the same address when the session ends.
func (b *Bridge) serve(ctx context.Context) error {
	listener := b.listener
	var sessionCount int64
	for {
		connection, err := b.accept(ctx, listener)
		listener.Close()
		if err != nil {
			return err
		}
		if connection == nil {
			return nil
		}

		sessionCount++
		outcome, err := b.session(ctx, connection, sessionCount)
		if err != nil {
			return err
		}
		if outcome == outcomeTerminated {
			return nil
		}

		listener, err = b.relisten()
		if err != nil {
			return err
		}
	}
}

// relisten binds the resolved listen address again. Failure is fatal:
// the bridge cannot honour its address any more.
func (b *Bridge) relisten() (*net.TCPListener, error) {
	listener, err := net.Listen("tcp", b.addr.String())
	if err != nil {
		return nil, fmt.Errorf("bridge: failed to listen again on %s: %w", b.addr, err)
	}
	b.logger().Debug("listening for next peer", "listen_addr", b.addr.String())
	return listener.(*net.TCPListener), nil
}

// accept waits for the next peer. It returns a nil connection and nil
// error when termination is requested while no peer is connected.
// Messages queued during this wait can never be delivered and are
// dropped here.
func (b *Bridge) accept(ctx context.Context, listener *net.TCPListener) (*net.TCPConn, error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		for _, queued := range b.commands.TakeAll() {
			if queued.kind == commandTerminate {
				return nil, nil
			}
			b.logger().Debug("dropping message, no peer connected", "bytes", len(queued.text))
		}

		listener.SetDeadline(time.Now().Add(positiveDuration(b.AcceptPollInterval, DefaultAcceptPollInterval))) //nolint:realclock OS socket deadline
		connection, err := listener.AcceptTCP()
		if err == nil {
			return connection, nil
		}
		if netutil.IsTimeout(err) {
			continue
		}
		return nil, fmt.Errorf("bridge: accept on %s: %w", b.addr, err)
	}
}

// session serves one connected peer until it disconnects, termination
// is requested, or a failure the ErrorPolicy deems fatal.
func (b *Bridge) session(ctx context.Context, connection *net.TCPConn, sessionID int64) (sessionOutcome, error) {
	remote := connection.RemoteAddr().String()
	logger := b.logger().With("session", sessionID, "remote_addr", remote)

	// Messages queued before this peer arrived were addressed to a
	// previous session (or to nobody) and must not reach the new peer.
	stale := 0
	for _, queued := range b.commands.TakeAll() {
		if queued.kind == commandTerminate {
			b.closeSession(connection, logger)
			return outcomeTerminated, nil
		}
		stale++
	}
	if stale > 0 {
		logger.Debug("discarded stale messages", "count", stale)
	}

	decoder := nulframe.Decoder{MaxFrameSize: b.MaxFrameSize}
	buffer := make([]byte, positive(b.ReadBufferSize, DefaultReadBufferSize))

	b.publish(Event{Kind: EventPeerConnected, Remote: remote})
	logger.Info("peer connected")

	for {
		// Inbound first: everything already buffered by the kernel is
		// published before this pass sends anything.
		connection.SetReadDeadline(time.Now().Add(positiveDuration(b.ReadPollInterval, DefaultReadPollInterval))) //nolint:realclock OS socket deadline
		count, readError := connection.Read(buffer)
		if count > 0 {
			frames, decodeError := decoder.Feed(buffer[:count])
			for _, frame := range frames {
				if frame == nulframe.HeartbeatToken {
					continue
				}
				logger.Debug("message received", "bytes", len(frame))
				b.publish(Event{Kind: EventMessage, Text: frame, Remote: remote})
			}
			if decodeError != nil {
				return b.fail(connection, logger, &SessionError{
					Class:  ClassProtocol,
					Op:     "decode",
					Remote: remote,
					Err:    decodeError,
				})
			}
		}
		if readError != nil && !netutil.IsTimeout(readError) {
			return b.fail(connection, logger, classify("read", remote, readError))
		}

		if ctx.Err() != nil {
			b.closeSession(connection, logger)
			return outcomeTerminated, nil
		}

		// Outbound: only what is queued right now. Terminate ends the
		// drain; anything queued behind it is never sent.
		for _, queued := range b.commands.TakeAll() {
			if queued.kind == commandTerminate {
				b.closeSession(connection, logger)
				return outcomeTerminated, nil
			}
			if err := b.write(connection, queued.text); err != nil {
				return b.fail(connection, logger, classify("write", remote, err))
			}
			logger.Debug("message sent", "bytes", len(queued.text))
		}
	}
}

// write sends one framed message in a single write.
func (b *Bridge) write(connection *net.TCPConn, text string) error {
	connection.SetWriteDeadline(time.Now().Add(positiveDuration(b.WriteTimeout, DefaultWriteTimeout))) //nolint:realclock OS socket deadline
	_, err := connection.Write(nulframe.Encode(text))
	return err
}

// fail ends a session after a read, decode, or write failure. Peer-gone
// errors and errors the policy downgrades become a disconnect; anything
// else stops the worker.
func (b *Bridge) fail(connection *net.TCPConn, logger *slog.Logger, sessionError *SessionError) (sessionOutcome, error) {
	connection.Close()

	if sessionError.Class != ClassPeerGone {
		policy := b.ErrorPolicy
		if policy == nil {
			policy = FailFast
		}
		if policy(sessionError) == DispositionFatal {
			return outcomeDisconnected, sessionError
		}
		logger.Warn("dropping session after error",
			"class", sessionError.Class.String(),
			"error", sessionError.Err,
		)
	}

	b.publish(Event{Kind: EventPeerDisconnected, Remote: sessionError.Remote})
	logger.Info("peer disconnected")
	return outcomeDisconnected, nil
}

// closeSession ends a session on shutdown: optional farewell frame, FIN,
// then a bounded wait for the peer's FIN so that unread inbound bytes do
// not turn the close into a reset that could discard our last writes.
func (b *Bridge) closeSession(connection *net.TCPConn, logger *slog.Logger) {
	defer connection.Close()

	if b.Farewell != "" {
		if err := b.write(connection, b.Farewell); err != nil {
			logger.Debug("farewell not delivered", "error", err)
		}
	}
	if err := connection.CloseWrite(); err != nil {
		logger.Debug("close write failed", "error", err)
		return
	}

	connection.SetReadDeadline(time.Now().Add(positiveDuration(b.CloseGrace, DefaultCloseGrace))) //nolint:realclock OS socket deadline
	discarded, err := io.Copy(io.Discard, connection)
	if err != nil && !netutil.IsTimeout(err) && !netutil.IsPeerGone(err) {
		logger.Debug("draining peer on close", "error", err)
	}
	if discarded > 0 {
		logger.Debug("discarded inbound bytes during shutdown", "bytes", discarded)
	}
	logger.Info("session closed for shutdown")
}

// publish stamps an event and hands it to the handle.
func (b *Bridge) publish(event Event) {
	eventClock := b.Clock
	if eventClock == nil {
		eventClock = clock.Real()
	}
	event.Time = eventClock.Now()
	b.events.Put(event)
}

// classify wraps a socket error from op into a SessionError.
func classify(op, remote string, err error) *SessionError {
	class := ClassIO
	if netutil.IsPeerGone(err) {
		class = ClassPeerGone
	}
	var opError *net.OpError
	if errors.As(err, &opError) && opError.Err != nil {
		err = opError.Err
	}
	return &SessionError{Class: class, Op: op, Remote: remote, Err: err}
}

func positiveDuration(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}

func positive(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}
