// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/debugbridge/lib/clock"
	"github.com/bureau-foundation/debugbridge/lib/mailbox"
)

// Defaults applied when the corresponding Bridge field is zero.
const (
	DefaultAcceptPollInterval = 50 * time.Millisecond
	DefaultReadPollInterval   = 10 * time.Millisecond
	DefaultWriteTimeout       = 5 * time.Second
	DefaultCloseGrace         = 250 * time.Millisecond
	DefaultReadBufferSize     = 1024
)

// Bridge serves one debug peer at a time over TCP. Configure the
// exported fields, then call Start. All methods are safe for concurrent
// use once Start has returned.
type Bridge struct {
	// ListenAddr is the TCP address to listen on (e.g. "127.0.0.1:6510").
	// Port 0 binds an ephemeral port; Addr reports it.
	ListenAddr string

	// AcceptPollInterval bounds each accept attempt while no peer is
	// connected. Between attempts the worker checks for Shutdown.
	AcceptPollInterval time.Duration

	// ReadPollInterval bounds each read while a peer is connected.
	// Between reads the worker sends queued messages, so this is the
	// worst-case latency of Send on an idle connection.
	ReadPollInterval time.Duration

	// WriteTimeout bounds each outbound message write.
	WriteTimeout time.Duration

	// CloseGrace bounds how long shutdown waits for the peer to finish
	// its side of the close.
	CloseGrace time.Duration

	// ReadBufferSize is the largest chunk read from the socket at once.
	ReadBufferSize int

	// MaxFrameSize caps an inbound frame still waiting for its
	// terminator. A longer unterminated run is published as a message
	// of its own. Zero uses the nulframe default.
	MaxFrameSize int

	// Farewell, if non-empty, is sent to a connected peer as a final
	// frame on shutdown so it can exit cleanly.
	Farewell string

	// ErrorPolicy decides which session failures stop the worker. Nil
	// means FailFast.
	ErrorPolicy ErrorPolicy

	// Clock timestamps events. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-message traffic is logged at Debug level; session
	// lifecycle at Info; worker failures at Error.
	Logger *slog.Logger

	// listener is handed to the worker, which owns it from then on.
	// addr is its resolved address, fixed for the bridge's lifetime.
	listener *net.TCPListener
	addr     net.Addr
	commands *mailbox.Mailbox[command]
	events   *mailbox.Mailbox[Event]
	done     chan struct{}
	err      error

	// connected mirrors the worker's session state as observed through
	// events. everConnected latches the first observed connection.
	connected     atomic.Bool
	everConnected atomic.Bool

	startOnce    sync.Once
	shutdownOnce sync.Once
}

// logger returns the configured logger or the default.
func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Start binds the listener and launches the worker goroutine. A bind
// failure is returned here and the bridge is unusable. The worker runs
// until Shutdown is called, ctx is cancelled, or a fatal session error
// stops it.
//
// A Bridge that is never shut down keeps its worker goroutine and
// listening socket for the life of the process.
func (b *Bridge) Start(ctx context.Context) error {
	if b.ListenAddr == "" {
		return fmt.Errorf("bridge: ListenAddr is required")
	}

	started := false
	b.startOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("bridge: already started")
	}

	listener, err := net.Listen("tcp", b.ListenAddr)
	if err != nil {
		return fmt.Errorf("bridge: failed to listen on %s: %w", b.ListenAddr, err)
	}

	b.listener = listener.(*net.TCPListener)
	b.addr = b.listener.Addr()
	b.commands = mailbox.New[command]()
	b.events = mailbox.New[Event]()
	b.done = make(chan struct{})

	go b.run(ctx)

	b.logger().Info("bridge started",
		"listen_addr", b.addr.String(),
	)
	return nil
}

// Addr returns the resolved listen address, useful when binding to
// port 0. It stays the same across sessions. Returns nil if the bridge
// has not been started.
func (b *Bridge) Addr() net.Addr {
	return b.addr
}

// Send queues text for the connected peer. It never blocks. A message
// sent while no peer is connected is discarded when the next peer
// connects; messages are never carried from one session to the next.
func (b *Bridge) Send(text string) {
	b.commands.Put(command{kind: commandMessage, text: text})
}

// Incoming returns the inbound messages queued at the time of the call.
// Connection events encountered along the way update Connected and are
// not yielded. Iterating never blocks; stopping early leaves the rest
// queued.
func (b *Bridge) Incoming() iter.Seq[string] {
	return func(yield func(string) bool) {
		for range b.events.Len() {
			event, ok := b.events.TryTake()
			if !ok {
				return
			}
			b.observe(event)
			if event.Kind != EventMessage {
				continue
			}
			if !yield(event.Text) {
				return
			}
		}
	}
}

// Drain returns every inbound message queued right now, oldest first. An
// empty result means nothing new has arrived.
func (b *Bridge) Drain() []string {
	return slices.Collect(b.Incoming())
}

// DrainEvents returns every queued event, connection events included,
// and updates Connected from them.
func (b *Bridge) DrainEvents() []Event {
	events := b.events.TakeAll()
	for _, event := range events {
		b.observe(event)
	}
	return events
}

// Connected reports whether a peer was connected as of the last event
// the handle consumed. It lags the worker until the next Drain,
// DrainEvents, or Incoming call, and is false once the worker has
// exited: no session survives the worker, whether or not a
// PeerDisconnected was published for it.
func (b *Bridge) Connected() bool {
	if b.done != nil {
		select {
		case <-b.done:
			return false
		default:
		}
	}
	return b.connected.Load()
}

// WaitForFirstConnection blocks until the handle observes the first
// peer connection. It returns immediately if one has already been
// observed, ctx.Err() if ctx ends first, and the worker's error (or
// ErrStopped) if the worker exits first. It is for startup
// synchronization before other handle calls consume events.
func (b *Bridge) WaitForFirstConnection(ctx context.Context) error {
	for {
		if b.everConnected.Load() {
			return nil
		}
		if event, ok := b.events.TryTake(); ok {
			b.observe(event)
			continue
		}

		select {
		case <-b.events.NewData():
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			// The worker may have published the connection just
			// before exiting.
			for {
				event, ok := b.events.TryTake()
				if !ok {
					break
				}
				b.observe(event)
				if b.everConnected.Load() {
					return nil
				}
			}
			if b.err != nil {
				return b.err
			}
			return ErrStopped
		}
	}
}

// Shutdown asks the worker to terminate and waits for it to exit.
// Messages sent before Shutdown are written to the peer first. Returns
// the error that stopped the worker, if it stopped on its own. Calling
// Shutdown more than once, or after the worker already exited, is safe.
func (b *Bridge) Shutdown() error {
	if b.done == nil {
		return nil
	}
	b.shutdownOnce.Do(func() {
		b.commands.Put(command{kind: commandTerminate})
	})
	<-b.done
	return b.err
}

// Wait blocks until the worker exits and returns the error that stopped
// it, or nil for a requested shutdown.
func (b *Bridge) Wait() error {
	if b.done == nil {
		return nil
	}
	<-b.done
	return b.err
}

// Done returns a channel closed when the worker exits.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Err returns the error that stopped the worker, or nil if it is still
// running or shut down cleanly.
func (b *Bridge) Err() error {
	if b.done == nil {
		return nil
	}
	select {
	case <-b.done:
		return b.err
	default:
		return nil
	}
}

// observe applies a connection event to the mirrored state.
func (b *Bridge) observe(event Event) {
	switch event.Kind {
	case EventPeerConnected:
		b.connected.Store(true)
		b.everConnected.Store(true)
	case EventPeerDisconnected:
		b.connected.Store(false)
	}
}
